package controller

import (
	"net/http"

	"riego/internal/modules/readings/repository"
)

type ReadingsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type readingsControllerImpl struct {
	repository repository.ReadingsRepository
}

func NewReadingsController(repository repository.ReadingsRepository) ReadingsController {
	return &readingsControllerImpl{repository: repository}
}

func (c *readingsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /fecha/{date}", c.handleByDate)
	mux.HandleFunc("GET /api/v1/dates", c.handleDates)
	mux.HandleFunc("GET /api/v1/devices/{id}/latest", c.handleLatest)
}
