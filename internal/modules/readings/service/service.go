package service

import (
	"log/slog"

	"riego/internal/modules/readings/repository"
	"riego/internal/mqtt"
)

// IngestRecorder counts ingest results.
type IngestRecorder interface {
	TelemetryIngested(result string)
}

type Service struct {
	repository repository.ReadingsRepository
	metrics    IngestRecorder
	logger     *slog.Logger
}

// NewService builds the ingest service. metrics may be nil.
func NewService(repository repository.ReadingsRepository, metrics IngestRecorder, logger *slog.Logger) *Service {
	return &Service{repository: repository, metrics: metrics, logger: logger}
}

func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	registerMQTTHandler(subscriber, s)
}

func (s *Service) count(result string) {
	if s.metrics != nil {
		s.metrics.TelemetryIngested(result)
	}
}
