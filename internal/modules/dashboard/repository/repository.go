package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"riego/internal/modules/dashboard/types"
)

//go:embed sql/insert-refresh.sql
var insertRefreshSQL string

//go:embed sql/get-recent-refreshes.sql
var getRecentRefreshesSQL string

// Fixed-width UTC timestamps keep started_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000Z"

// LoadLogRepository stores the audit trail of dashboard refreshes.
type LoadLogRepository interface {
	RecordRefresh(ctx context.Context, rec types.RefreshRecord) error
	GetRecentRefreshes(ctx context.Context, limit int) ([]types.RefreshRecord, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) LoadLogRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) RecordRefresh(ctx context.Context, rec types.RefreshRecord) error {
	_, err := r.db.ExecContext(ctx, insertRefreshSQL,
		rec.ID,
		rec.RequestedDate,
		rec.StartedAt.UTC().Format(timeLayout),
		rec.DurationMs,
		rec.RowCount,
		rec.Quarantined,
		rec.Outcome,
		nullIfEmpty(rec.Cause),
		nullIfEmpty(rec.Error),
	)
	if err != nil {
		return fmt.Errorf("insert refresh %s: %w", rec.ID, err)
	}
	return nil
}

func (r *repositoryImpl) GetRecentRefreshes(ctx context.Context, limit int) ([]types.RefreshRecord, error) {
	rows, err := r.db.QueryContext(ctx, getRecentRefreshesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close refresh rows", "error", err)
		}
	}()

	out := []types.RefreshRecord{}
	for rows.Next() {
		var (
			rec          types.RefreshRecord
			started      string
			cause, errNS sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RequestedDate,
			&started,
			&rec.DurationMs,
			&rec.RowCount,
			&rec.Quarantined,
			&rec.Outcome,
			&cause,
			&errNS,
		); err != nil {
			return nil, err
		}
		t, err := time.Parse(timeLayout, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", started, err)
		}
		rec.StartedAt = t
		rec.Cause = cause.String
		rec.Error = errNS.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
