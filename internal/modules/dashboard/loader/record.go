package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"riego/internal/modules/dashboard/types"
)

// Wire keys of a reading record.
const (
	keyDate         = "fecha"
	keyRecordedAt   = "fechaRegistrada"
	keyTemperatureC = "temperaturaC"
	keyAmbientTemp  = "tempAmb"
	keyHumidityPct  = "humedadPorc"
	keySoilHumidity = "humedadSuelo"
)

var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseRecords validates each raw record. Invalid records are reported in
// Quarantined and left out of Readings; the order of valid records is kept.
func ParseRecords(date string, raw []json.RawMessage) types.SensorTable {
	table := types.SensorTable{
		Date:     date,
		Readings: make([]types.SensorReading, 0, len(raw)),
	}
	for i, rec := range raw {
		reading, err := parseRecord(rec)
		if err != nil {
			table.Quarantined = append(table.Quarantined, types.QuarantinedRecord{Index: i, Reason: err.Error()})
			continue
		}
		table.Readings = append(table.Readings, reading)
	}
	return table
}

func parseRecord(rec json.RawMessage) (types.SensorReading, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil || fields == nil {
		return types.SensorReading{}, errors.New("record is not a JSON object")
	}

	var (
		r   types.SensorReading
		err error
	)
	if r.Date, err = parseDate(fields[keyDate]); err != nil {
		return r, fmt.Errorf("%s: %w", keyDate, err)
	}
	if r.RecordedAt, err = parseTimestamp(fields[keyRecordedAt]); err != nil {
		return r, fmt.Errorf("%s: %w", keyRecordedAt, err)
	}
	numbers := []struct {
		key string
		dst *float64
	}{
		{keyTemperatureC, &r.TemperatureC},
		{keyAmbientTemp, &r.AmbientTemp},
		{keyHumidityPct, &r.HumidityPct},
		{keySoilHumidity, &r.SoilHumidity},
	}
	for _, n := range numbers {
		if *n.dst, err = parseNumber(fields[n.key]); err != nil {
			return r, fmt.Errorf("%s: %w", n.key, err)
		}
	}
	return r, nil
}

func isMissing(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(v json.RawMessage) (float64, error) {
	if isMissing(v) {
		return 0, errors.New("missing")
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", v)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

func parseString(v json.RawMessage) (string, error) {
	if isMissing(v) {
		return "", errors.New("missing")
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("not a string: %s", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty")
	}
	return s, nil
}

// parseDate returns the calendar date in DateLayout. A timestamp is accepted
// and reduced to its date part.
func parseDate(v json.RawMessage) (string, error) {
	s, err := parseString(v)
	if err != nil {
		return "", err
	}
	if d, err := time.Parse(types.DateLayout, s); err == nil {
		return d.Format(types.DateLayout), nil
	}
	ts, err := parseTimestampString(s)
	if err != nil {
		return "", fmt.Errorf("not a date: %q", s)
	}
	return ts.Format(types.DateLayout), nil
}

func parseTimestamp(v json.RawMessage) (time.Time, error) {
	s, err := parseString(v)
	if err != nil {
		return time.Time{}, err
	}
	return parseTimestampString(s)
}

func parseTimestampString(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("not a timestamp: %q", s)
}
