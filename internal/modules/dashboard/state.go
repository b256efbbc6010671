package dashboard

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"riego/internal/modules/dashboard/refresh"
	"riego/internal/modules/dashboard/types"
)

// Refresher runs one load-and-build cycle.
type Refresher interface {
	Refresh(ctx context.Context, date string) refresh.Outcome
}

// Initialize builds the charts for defaultDate. Any failure is returned so
// the caller can abort startup.
func Initialize(ctx context.Context, r Refresher, defaultDate string, dates []string) (*types.DashboardState, error) {
	out := r.Refresh(ctx, defaultDate)
	if !out.OK() {
		return nil, fmt.Errorf("initial dashboard load for %s failed (%s): %w", defaultDate, out.Cause, out.Err)
	}
	return &types.DashboardState{
		DefaultDate:   defaultDate,
		Dates:         append([]string(nil), dates...),
		Initial:       *out.Charts,
		InitializedAt: time.Now().UTC(),
	}, nil
}

// StateHolder publishes the dashboard state once Initialize has succeeded.
type StateHolder struct {
	p atomic.Pointer[types.DashboardState]
}

func (h *StateHolder) Set(s *types.DashboardState) { h.p.Store(s) }

// Get returns nil until Set is called.
func (h *StateHolder) Get() *types.DashboardState { return h.p.Load() }

func (h *StateHolder) Ready() bool { return h.p.Load() != nil }
