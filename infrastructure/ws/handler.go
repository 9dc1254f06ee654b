// Package ws binds websocket connections to the chat session.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"huddle/domain"
	"huddle/services"
	"huddle/sink"

	"github.com/gorilla/websocket"
)

const closeTimeout = 5 * time.Second

type Options struct {
	OutboxSize    int
	PingInterval  time.Duration
	PongWait      time.Duration
	WriteWait     time.Duration
	MaxFrameBytes int64
}

// Handler upgrades HTTP requests and runs one read pump and one write pump
// per connection. The connection's lifetime is the session's lifetime.
type Handler struct {
	log      *slog.Logger
	chat     services.IChatService
	upgrader websocket.Upgrader
	options  Options
}

func NewHandler(log *slog.Logger, chat services.IChatService, options Options) *Handler {
	return &Handler{
		log:  log,
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		options: options,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Upgrade error", "error", err)
		return
	}
	defer conn.Close()

	outbox := sink.NewConnSink(h.options.OutboxSize)
	id, err := h.chat.Open(r.Context(), outbox)
	if err != nil {
		h.log.Warn("Connection refused", "remote", r.RemoteAddr, "error", err)
		return
	}
	h.log.Debug("Connection opened", "session_id", id, "remote", r.RemoteAddr)

	done := make(chan struct{})
	go h.writePump(conn, id, outbox, done)
	h.readPump(r.Context(), conn, id)
	close(done)

	// The request context is over once the peer is gone. The disconnect is
	// queued even past this deadline, the timeout only bounds the wait before warning.
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err = h.chat.Close(ctx, id); err != nil {
		h.log.Warn("Disconnect not queued, orchestrator stopped", "session_id", id, "error", err)
	}
	h.log.Debug("Connection closed", "session_id", id)
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, id domain.SessionID) {
	conn.SetReadLimit(h.options.MaxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.options.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.options.PongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Read error", "session_id", id, "error", err)
			}
			return
		}
		if err = h.chat.Receive(ctx, id, frame); err != nil {
			h.log.Debug("Inbound frame dropped", "session_id", id, "error", err)
		}
	}
}

// writePump is the only writer of conn, pings included.
func (h *Handler) writePump(conn *websocket.Conn, id domain.SessionID, outbox *sink.ConnSink, done <-chan struct{}) {
	ticker := time.NewTicker(h.options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.options.WriteWait))
			return
		case <-outbox.Evicted():
			h.log.Warn("Connection too slow, closing it", "session_id", id)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
				time.Now().Add(h.options.WriteWait))
			_ = conn.Close()
			return
		case e := <-outbox.Outbox:
			_ = conn.SetWriteDeadline(time.Now().Add(h.options.WriteWait))
			if err := conn.WriteJSON(e); err != nil {
				h.log.Debug("Write error", "session_id", id, "error", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.options.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
