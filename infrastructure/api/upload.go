package api

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"huddle/errors"
	"huddle/services"
)

// multipartOverhead leaves room for the form boundaries around the file.
const multipartOverhead = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func HandleUpload(log *slog.Logger, uploads services.IUploadService, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				writeJSON(log, w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: errors.Reason(errors.ErrFileTooLarge)})
				return
			}
			writeJSON(log, w, http.StatusBadRequest, ErrorResponse{Error: "no_file"})
			return
		}
		defer file.Close()

		attachment, err := uploads.Store(header.Filename, file)
		if err != nil {
			log.Debug("Upload rejected", "name", header.Filename, "reason", errors.Reason(err), "error", err)
			writeJSON(log, w, uploadStatus(err), ErrorResponse{Error: errors.Reason(err)})
			return
		}
		writeJSON(log, w, http.StatusOK, attachment)
	}
}

func uploadStatus(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, errors.ErrFileTypeNotAllowed):
		return http.StatusUnsupportedMediaType
	case stderrors.Is(err, errors.ErrValidationRejected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
