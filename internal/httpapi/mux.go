package httpapi

import (
	"database/sql"
	"net/http"

	"riego/internal/observability"
)

// NewMux registers the infrastructure routes; feature modules add their own.
func NewMux(db *sql.DB, staticDir string, metrics *observability.Metrics, ready ReadinessChecker) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db, ready)
	mux.Handle("GET /metrics", metrics.Handler())
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
