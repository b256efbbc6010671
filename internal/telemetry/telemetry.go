package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reading is one irrigation sensor message as published on riego/{device}/telemetry.
type Reading struct {
	DeviceID     string    `json:"device_id"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC *float64  `json:"temperatura_c,omitempty"`
	AmbientTemp  *float64  `json:"temp_amb,omitempty"`
	HumidityPct  *float64  `json:"humedad_porc,omitempty"`
	SoilHumidity *float64  `json:"humedad_suelo,omitempty"`
	Sequence     *int      `json:"sequence,omitempty"`
}

// Topic returns the publish topic for a device.
func Topic(deviceID string) string {
	return fmt.Sprintf("riego/%s/telemetry", deviceID)
}

// Validate checks the fields the readings store requires.
func (r Reading) Validate() error {
	if strings.TrimSpace(r.DeviceID) == "" {
		return errors.New("device_id is required")
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	var missing []string
	if r.TemperatureC == nil {
		missing = append(missing, "temperatura_c")
	}
	if r.AmbientTemp == nil {
		missing = append(missing, "temp_amb")
	}
	if r.HumidityPct == nil {
		missing = append(missing, "humedad_porc")
	}
	if r.SoilHumidity == nil {
		missing = append(missing, "humedad_suelo")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing readings: %s", strings.Join(missing, ", "))
	}
	if *r.HumidityPct < 0 || *r.HumidityPct > 100 {
		return fmt.Errorf("humedad_porc out of range: %f (must be 0-100)", *r.HumidityPct)
	}
	return nil
}
