package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"riego/internal/utils"
)

// ReadinessChecker reports whether the dashboard finished its initial load.
type ReadinessChecker interface {
	Ready() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	db    *sql.DB
	ready ReadinessChecker
}

func NewHealthchecker(db *sql.DB, ready ReadinessChecker) healthchecker {
	return &healthcheckerImpl{db: db, ready: ready}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var ok int
	if err := h.db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	dashboard := "ready"
	if h.ready != nil && !h.ready.Ready() {
		dashboard = "starting"
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "dashboard": dashboard})
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB, ready ReadinessChecker) {
	healthchecker := NewHealthchecker(db, ready)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
