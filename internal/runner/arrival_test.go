package runner

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestPoissonPacerGapScalesWithRate(t *testing.T) {
	tests := []struct {
		sample float64
		rps    int
		want   time.Duration
	}{
		{1, 200, 5 * time.Millisecond},
		{2, 200, 10 * time.Millisecond},
		{0.5, 10, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		sample := tt.sample
		p := newPacer(Options{
			RatePerSecond:  tt.rps,
			ArrivalModel:   ArrivalModelPoisson,
			PoissonSampler: func() float64 { return sample },
		}).(*poissonPacer)
		if got := p.gap(); got != tt.want {
			t.Errorf("gap(sample=%v, rps=%d) = %s, want %s", tt.sample, tt.rps, got, tt.want)
		}
	}
}

func TestPoissonPacerStopsOnCancel(t *testing.T) {
	p := &poissonPacer{rps: 0.001, sample: func() float64 { return 1 }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := p.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Wait() blocked despite cancelled context")
	}
}

func TestNewPacerUnpacedPhase(t *testing.T) {
	for _, model := range []ArrivalModel{ArrivalModelUniform, ArrivalModelPoisson} {
		opts := Options{ArrivalModel: model}
		opts.normalize()
		if p := newPacer(opts); p != nil {
			t.Errorf("%s: expected no pacer without a rate, got %T", model, p)
		}
	}
}

func TestNewPacerUniformUsesLimiter(t *testing.T) {
	opts := Options{RatePerSecond: 25}
	opts.normalize()
	limiter, ok := newPacer(opts).(*rate.Limiter)
	if !ok {
		t.Fatal("expected a rate.Limiter for uniform pacing")
	}
	if limiter.Limit() != 25 {
		t.Errorf("Limit() = %v, want 25", limiter.Limit())
	}
}
