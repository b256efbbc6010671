package simulator

import (
	"context"
	"errors"
	"testing"
	"time"

	"riego/internal/telemetry"
)

type recordingPublisher struct {
	readings []telemetry.Reading
	err      error
}

func (p *recordingPublisher) PublishReading(r telemetry.Reading) error {
	if p.err != nil {
		return p.err
	}
	p.readings = append(p.readings, r)
	return nil
}

func TestWalk_deterministic(t *testing.T) {
	a, b := NewWalk(42), NewWalk(42)
	for i := range 50 {
		at, aa, ah, as := a.Next()
		bt, ba, bh, bs := b.Next()
		if at != bt || aa != ba || ah != bh || as != bs {
			t.Fatalf("step %d diverged", i)
		}
	}
}

func TestWalk_bounds(t *testing.T) {
	w := NewWalk(7)
	for i := range 1000 {
		temp, amb, hum, soil := w.Next()
		if temp < 5 || temp > 40 || amb < 0 || amb > 45 {
			t.Fatalf("step %d temperatures out of range: %v %v", i, temp, amb)
		}
		if hum < 0 || hum > 100 || soil < 0 || soil > 100 {
			t.Fatalf("step %d humidity out of range: %v %v", i, hum, soil)
		}
	}
}

func TestRun_count(t *testing.T) {
	pub := &recordingPublisher{}
	err := Run(t.Context(), Options{DeviceID: "parcela-01", Interval: time.Millisecond, Count: 3, Seed: 1}, pub)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.readings) != 3 {
		t.Fatalf("published %d; want 3", len(pub.readings))
	}
	for i, r := range pub.readings {
		if err := r.Validate(); err != nil {
			t.Errorf("reading %d invalid: %v", i, err)
		}
		if r.Sequence == nil || *r.Sequence != i+1 {
			t.Errorf("reading %d sequence = %v", i, r.Sequence)
		}
	}
}

func TestRun_publishError(t *testing.T) {
	want := errors.New("not connected")
	err := Run(t.Context(), Options{DeviceID: "parcela-01", Interval: time.Millisecond, Count: 3}, &recordingPublisher{err: want})
	if !errors.Is(err, want) {
		t.Errorf("Run = %v; want %v", err, want)
	}
}

func TestRun_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := Run(ctx, Options{DeviceID: "parcela-01", Interval: time.Hour}, &recordingPublisher{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v; want context.Canceled", err)
	}
}
