package runner

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// pacer delays the scheduler before each permit. Only the scheduler goroutine
// calls Wait.
type pacer interface {
	Wait(ctx context.Context) error
}

// newPacer returns nil when the phase is unpaced, so every permit is issued
// immediately.
func newPacer(opt Options) pacer {
	if opt.RatePerSecond <= 0 {
		return nil
	}
	if opt.ArrivalModel == ArrivalModelPoisson {
		sample := opt.PoissonSampler
		if sample == nil {
			sample = rand.New(rand.NewSource(opt.RandomSeed)).ExpFloat64
		}
		return &poissonPacer{rps: float64(opt.RatePerSecond), sample: sample}
	}
	// *rate.Limiter already spaces permits evenly.
	return opt.LimiterFactory(opt.RatePerSecond)
}

// poissonPacer draws exponential gaps with mean 1/rps between permits.
type poissonPacer struct {
	rps    float64
	sample func() float64
}

func (p *poissonPacer) Wait(ctx context.Context) error {
	gap := p.gap()
	if gap <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(gap)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *poissonPacer) gap() time.Duration {
	ns := p.sample() / p.rps * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}
