package controller

import (
	"context"
	"net/http"

	"riego/internal/modules/dashboard/refresh"
	"riego/internal/modules/dashboard/repository"
	"riego/internal/modules/dashboard/types"
)

const pageTitle = "Sistema de Riego"

type Refresher interface {
	Refresh(ctx context.Context, date string) refresh.Outcome
}

// StateSource returns nil until the dashboard finished its initial load.
type StateSource interface {
	Get() *types.DashboardState
}

type DashboardController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type dashboardControllerImpl struct {
	refresher  Refresher
	state      StateSource
	repository repository.LoadLogRepository
}

func NewDashboardController(refresher Refresher, state StateSource, repository repository.LoadLogRepository) DashboardController {
	return &dashboardControllerImpl{refresher: refresher, state: state, repository: repository}
}

func (c *dashboardControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /partials/charts", c.handleChartsPartial)
	mux.HandleFunc("GET /api/v1/charts", c.handleCharts)
	mux.HandleFunc("GET /api/v1/refreshes", c.handleRefreshes)
}
