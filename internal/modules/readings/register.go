package readings

import (
	"database/sql"
	"log/slog"
	"net/http"

	"riego/internal/modules/readings/controller"
	"riego/internal/modules/readings/repository"
	"riego/internal/modules/readings/service"
	"riego/internal/mqtt"
	"riego/internal/observability"
)

// RegisterFeature mounts the readings API and, when subscriber is non-nil,
// stores incoming telemetry.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.MQTTSubscriber, metrics *observability.Metrics) {
	readingsRepository := repository.NewRepository(db)
	readingsController := controller.NewReadingsController(readingsRepository)
	readingsController.RegisterRoutes(mux)

	if subscriber != nil {
		readingsService := service.NewService(readingsRepository, metrics, slog.Default().With("module", "readings"))
		readingsService.Register(subscriber)
	}
}
