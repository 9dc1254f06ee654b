// Package api exposes the HTTP surface: the websocket endpoint, health,
// attachment uploads and the uploaded files themselves.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"huddle/runtime"
	"huddle/services"

	"github.com/gorilla/mux"
)

type StatsProvider interface {
	Stats() runtime.Stats
}

type Options struct {
	UploadDir      string
	UploadMaxBytes int64
	PublicPrefix   string
}

func NewRouter(log *slog.Logger, ws http.Handler, uploads services.IUploadService, stats StatsProvider, options Options) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/ws", ws)
	r.HandleFunc("/health", HandleHealth(log, stats)).Methods(http.MethodGet)
	r.HandleFunc("/upload", HandleUpload(log, uploads, options.UploadMaxBytes)).Methods(http.MethodPost)
	r.PathPrefix(options.PublicPrefix).
		Handler(http.StripPrefix(options.PublicPrefix, http.FileServer(http.Dir(options.UploadDir)))).
		Methods(http.MethodGet)
	return r
}

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug("Response not written", "error", err)
	}
}
