package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"riego/internal/modules/dashboard/types"
)

const maxBodyBytes = 32 << 20

// Cause classifies why a load failed.
type Cause string

const (
	CauseNetwork Cause = "network"
	CauseStatus  Cause = "status"
	CauseDecode  Cause = "decode"
)

// Error is returned for every failed Load.
type Error struct {
	Cause      Cause
	Date       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Cause == CauseStatus {
		return fmt.Sprintf("load readings for %s: unexpected status %d", e.Date, e.StatusCode)
	}
	return fmt.Sprintf("load readings for %s: %s: %v", e.Date, e.Cause, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CauseOf returns the Cause carried by err, or "" if err is not a load error.
func CauseOf(err error) Cause {
	var le *Error
	if errors.As(err, &le) {
		return le.Cause
	}
	return ""
}

// Loader fetches readings for a date from GET {base}/fecha/{date}.
type Loader struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// URL returns the request URL used for date.
func (l *Loader) URL(date string) string {
	return l.baseURL + "/fecha/" + url.PathEscape(date)
}

// Load performs one GET and returns the readings in response order.
// An empty array yields an empty table.
func (l *Loader) Load(ctx context.Context, date string) (types.SensorTable, error) {
	target := l.URL(date)
	slog.Info("dashboard: fetching readings", "url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.SensorTable{}, &Error{Cause: CauseNetwork, Date: date, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return types.SensorTable{}, &Error{Cause: CauseNetwork, Date: date, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Debug("dashboard: close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return types.SensorTable{}, &Error{
			Cause:      CauseStatus,
			Date:       date,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return types.SensorTable{}, &Error{Cause: CauseNetwork, Date: date, Err: err}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return types.SensorTable{}, &Error{Cause: CauseDecode, Date: date, Err: errors.New("response body is not a JSON array")}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return types.SensorTable{}, &Error{Cause: CauseDecode, Date: date, Err: err}
	}

	table := ParseRecords(date, raw)
	for _, q := range table.Quarantined {
		slog.Warn("dashboard: quarantined reading",
			"date", date,
			"index", q.Index,
			"reason", q.Reason,
		)
	}
	return table, nil
}
