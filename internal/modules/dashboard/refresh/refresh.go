package refresh

import (
	"context"
	"log/slog"
	"time"

	"riego/internal/modules/dashboard/charts"
	"riego/internal/modules/dashboard/loader"
	"riego/internal/modules/dashboard/types"

	"github.com/google/uuid"
)

// Cause classifies a failed refresh.
type Cause string

const (
	CauseNone    Cause = ""
	CauseNetwork Cause = "network"
	CauseStatus  Cause = "status"
	CauseDecode  Cause = "decode"
	CauseBuild   Cause = "build"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Outcome is the result of one refresh: either Charts is set, or Cause and Err are.
type Outcome struct {
	ID       string
	Date     string
	Charts   *types.ChartSet
	Cause    Cause
	Err      error
	Rows     int
	Duration time.Duration
}

func (o Outcome) OK() bool { return o.Charts != nil }

type TableLoader interface {
	Load(ctx context.Context, date string) (types.SensorTable, error)
}

// AuditLog persists a record of each refresh.
type AuditLog interface {
	RecordRefresh(ctx context.Context, rec types.RefreshRecord) error
}

type Recorder interface {
	RefreshObserved(outcome, cause string, duration time.Duration)
}

type Pipeline struct {
	loader  TableLoader
	audit   AuditLog
	metrics Recorder
	build   func(types.SensorTable) (types.ChartSet, error)
	now     func() time.Time
}

// NewPipeline wires loader to the chart builder. audit and metrics may be nil.
func NewPipeline(l TableLoader, audit AuditLog, metrics Recorder) *Pipeline {
	return &Pipeline{
		loader:  l,
		audit:   audit,
		metrics: metrics,
		build:   charts.Build,
		now:     time.Now,
	}
}

// Refresh loads readings for date and builds its charts. Failures are
// returned as an Outcome, never as a panic or a bare error.
func (p *Pipeline) Refresh(ctx context.Context, date string) Outcome {
	started := p.now()
	out := Outcome{ID: uuid.NewString(), Date: date}

	table, err := p.loader.Load(ctx, date)
	quarantined := len(table.Quarantined)
	if err != nil {
		out.Cause, out.Err = causeOf(err), err
	} else {
		out.Rows = len(table.Readings)
		set, err := p.build(table)
		if err != nil {
			out.Cause, out.Err = CauseBuild, err
		} else {
			out.Charts = &set
		}
	}
	out.Duration = p.now().Sub(started)

	outcome := outcomeSuccess
	if out.OK() {
		slog.Info("dashboard: refresh succeeded",
			"date", date,
			"rows", out.Rows,
			"quarantined", quarantined,
			"duration_ms", out.Duration.Milliseconds(),
		)
	} else {
		outcome = outcomeFailure
		slog.Warn("dashboard: refresh failed",
			"date", date,
			"cause", string(out.Cause),
			"error", out.Err,
			"duration_ms", out.Duration.Milliseconds(),
		)
	}

	if p.metrics != nil {
		p.metrics.RefreshObserved(outcome, string(out.Cause), out.Duration)
	}
	if p.audit != nil {
		rec := types.RefreshRecord{
			ID:            out.ID,
			RequestedDate: date,
			StartedAt:     started.UTC(),
			DurationMs:    out.Duration.Milliseconds(),
			RowCount:      out.Rows,
			Quarantined:   quarantined,
			Outcome:       outcome,
			Cause:         string(out.Cause),
		}
		if out.Err != nil {
			rec.Error = out.Err.Error()
		}
		// Written even when the request was canceled.
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if err := p.audit.RecordRefresh(auditCtx, rec); err != nil {
			slog.Warn("dashboard: record refresh failed", "id", out.ID, "error", err)
		}
		cancel()
	}
	return out
}

func causeOf(err error) Cause {
	switch loader.CauseOf(err) {
	case loader.CauseStatus:
		return CauseStatus
	case loader.CauseDecode:
		return CauseDecode
	default:
		return CauseNetwork
	}
}
