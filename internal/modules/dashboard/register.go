package dashboard

import (
	"database/sql"
	"net/http"

	"riego/internal/modules/dashboard/controller"
	"riego/internal/modules/dashboard/loader"
	"riego/internal/modules/dashboard/refresh"
	"riego/internal/modules/dashboard/repository"
	"riego/internal/observability"
)

// RegisterFeature wires the loader, pipeline and audit log and mounts the
// dashboard routes. The routes answer 503 until state is set.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, state *StateHolder, hostAPI string, client *http.Client, metrics *observability.Metrics) *refresh.Pipeline {
	auditRepository := repository.NewRepository(db)
	pipeline := refresh.NewPipeline(loader.New(hostAPI, client), auditRepository, metrics)

	dashboardController := controller.NewDashboardController(pipeline, state, auditRepository)
	dashboardController.RegisterRoutes(mux)

	return pipeline
}
