package httpapi

import (
	"net/http"
	"time"

	"riego/internal/config"
)

func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Refreshes wait on HOST_API, so the write deadline must outlast that timeout.
		WriteTimeout: cfg.HostAPITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
