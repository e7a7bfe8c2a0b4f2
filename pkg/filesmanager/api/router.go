package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

const (
	// DefaultMaxBodyBytes bounds POST bodies; file data arrives base64 encoded
	DefaultMaxBodyBytes int64 = 64 << 20

	// DefaultRequestTimeout bounds a single request
	DefaultRequestTimeout = 60 * time.Second
)

// Mount attaches the files API under /files on r. A positive maxBodyBytes
// caps request bodies.
func Mount(r chi.Router, service filesmanager.Service, logger *slog.Logger, maxBodyBytes int64) {
	if logger == nil {
		logger = slog.Default()
	}

	chain := NewMiddlewareChain(
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		RecoveryMiddleware(logger),
	)
	if maxBodyBytes > 0 {
		chain.Then(RequestSizeLimitMiddleware(maxBodyBytes))
	}

	files := NewFilesHandler(service, logger)
	r.Mount("/files", chain.Wrap(files.Routes()))
}

// NewRouter returns a router serving the files API
func NewRouter(service filesmanager.Service, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(DefaultRequestTimeout))

	Mount(r, service, logger, DefaultMaxBodyBytes)
	return r
}
