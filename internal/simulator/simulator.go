package simulator

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"riego/internal/telemetry"
)

// Publisher is satisfied by *mqtt.Publisher.
type Publisher interface {
	PublishReading(reading telemetry.Reading) error
}

// Walk produces a bounded random walk per sensor. The same seed always
// yields the same sequence.
type Walk struct {
	rng  *rand.Rand
	temp float64
	amb  float64
	hum  float64
	soil float64
}

func NewWalk(seed uint64) *Walk {
	return &Walk{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		temp: 20,
		amb:  24,
		hum:  60,
		soil: 35,
	}
}

// Next advances every sensor by one step and returns the values rounded the
// way the field devices report them.
func (w *Walk) Next() (temp, amb, hum, soil float64) {
	w.temp = w.step(w.temp, 1, 5, 40)
	w.amb = w.step(w.amb, 0.5, 0, 45)
	w.hum = w.step(w.hum, 2, 0, 100)
	w.soil = w.step(w.soil, 1.5, 0, 100)
	return math.Round(w.temp), round1(w.amb), math.Round(w.hum), round1(w.soil)
}

func (w *Walk) step(v, scale, lo, hi float64) float64 {
	v += (w.rng.Float64()*2 - 1) * scale
	return min(max(v, lo), hi)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

type Options struct {
	DeviceID string
	Interval time.Duration
	// Count is the number of readings to publish; 0 publishes until ctx ends.
	Count int
	Seed  uint64
}

// Run publishes one reading per Interval. It returns nil after Count
// readings, ctx.Err() when canceled, or the first publish error.
func Run(ctx context.Context, opts Options, pub Publisher) error {
	walk := NewWalk(opts.Seed)
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	sequence := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			temp, amb, hum, soil := walk.Next()
			sequence++
			seq := sequence
			reading := telemetry.Reading{
				DeviceID:     opts.DeviceID,
				Timestamp:    time.Now().UTC(),
				TemperatureC: &temp,
				AmbientTemp:  &amb,
				HumidityPct:  &hum,
				SoilHumidity: &soil,
				Sequence:     &seq,
			}
			if err := pub.PublishReading(reading); err != nil {
				return err
			}
			slog.Debug("simulator: published", "device_id", opts.DeviceID, "sequence", seq)
			if opts.Count > 0 && sequence >= opts.Count {
				return nil
			}
		}
	}
}
