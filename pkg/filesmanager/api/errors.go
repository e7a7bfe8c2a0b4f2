package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// Error messages returned in the "error" field of failed responses
const (
	msgUnauthorized    = "Unauthorized"
	msgNotFound        = "Not found"
	msgParentNotFound  = "Parent not found"
	msgParentNotFolder = "Parent is not a folder"
	msgFolderNoContent = "A folder doesn't have content"
	msgInvalidRequest  = "Invalid request"
	msgInternalError   = "Internal server error"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// writeError maps a service error onto a status code and message. Anything
// not recognised is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validationErr *filesmanager.ValidationError

	switch {
	case errors.Is(err, filesmanager.ErrUnauthorized):
		writeMessage(w, r, http.StatusUnauthorized, msgUnauthorized)
	case errors.As(err, &validationErr):
		writeMessage(w, r, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, filesmanager.ErrParentNotFound):
		writeMessage(w, r, http.StatusBadRequest, msgParentNotFound)
	case errors.Is(err, filesmanager.ErrParentNotFolder):
		writeMessage(w, r, http.StatusBadRequest, msgParentNotFolder)
	case errors.Is(err, filesmanager.ErrInvalidOperation):
		writeMessage(w, r, http.StatusBadRequest, msgFolderNoContent)
	case errors.Is(err, filesmanager.ErrNotFound):
		writeMessage(w, r, http.StatusNotFound, msgNotFound)
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "err", err)
		writeMessage(w, r, http.StatusInternalServerError, msgInternalError)
	}
}
