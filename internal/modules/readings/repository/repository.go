package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"riego/internal/modules/readings/types"
	"riego/internal/telemetry"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-readings-by-date.sql
var getReadingsByDateSQL string

//go:embed sql/get-dates.sql
var getDatesSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

const (
	// storedLayout keeps recorded_at sortable as text.
	storedLayout = "2006-01-02T15:04:05.000Z"
	// wireLayout is what GET /fecha/{date} returns as fechaRegistrada.
	wireLayout = "2006-01-02T15:04:05"
	dateLayout = "2006-01-02"
)

var ErrInvalidDate = errors.New("invalid date")

type ReadingsRepository interface {
	// InsertReading reports false when the device already sent a reading
	// with the same timestamp.
	InsertReading(ctx context.Context, reading telemetry.Reading) (bool, error)
	GetByDate(ctx context.Context, date string) ([]types.Row, error)
	GetDates(ctx context.Context) ([]types.DateCount, error)
	GetLatest(ctx context.Context, deviceID string, limit int) ([]types.Row, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingsRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(ctx context.Context, reading telemetry.Reading) (bool, error) {
	if err := reading.Validate(); err != nil {
		return false, err
	}
	ts := reading.Timestamp.UTC()
	res, err := r.db.ExecContext(ctx, insertReadingSQL,
		reading.DeviceID,
		ts.Format(dateLayout),
		ts.Format(storedLayout),
		*reading.TemperatureC,
		*reading.AmbientTemp,
		*reading.HumidityPct,
		*reading.SoilHumidity,
	)
	if err != nil {
		return false, fmt.Errorf("insert reading from %s: %w", reading.DeviceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repositoryImpl) GetByDate(ctx context.Context, date string) ([]types.Row, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w %q (expected YYYY-MM-DD)", ErrInvalidDate, date)
	}
	rows, err := r.db.QueryContext(ctx, getReadingsByDateSQL, date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanRows(rows)
}

func (r *repositoryImpl) GetLatest(ctx context.Context, deviceID string, limit int) ([]types.Row, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingsSQL, deviceID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	return scanRows(rows)
}

func (r *repositoryImpl) GetDates(ctx context.Context) ([]types.DateCount, error) {
	rows, err := r.db.QueryContext(ctx, getDatesSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close dates rows", "error", err)
		}
	}()

	out := []types.DateCount{}
	for rows.Next() {
		var d types.DateCount
		if err := rows.Scan(&d.Date, &d.Readings); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanRows(rows *sql.Rows) ([]types.Row, error) {
	out := []types.Row{}
	for rows.Next() {
		var (
			row      types.Row
			recorded string
		)
		if err := rows.Scan(
			&row.Date,
			&recorded,
			&row.TemperatureC,
			&row.AmbientTemp,
			&row.HumidityPct,
			&row.SoilHumidity,
		); err != nil {
			return nil, err
		}
		t, err := time.Parse(storedLayout, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at %q: %w", recorded, err)
		}
		row.RecordedAt = t.Format(wireLayout)
		out = append(out, row)
	}
	return out, rows.Err()
}
