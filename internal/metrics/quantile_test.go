package metrics_test

import (
	"testing"
	"time"

	"github.com/torosent/sweepfire/internal/metrics"
)

func ms(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestMedianEmpty(t *testing.T) {
	if _, ok := metrics.Median(nil); ok {
		t.Fatal("expected median to be undefined for no samples")
	}
}

func TestMedianOddAndEven(t *testing.T) {
	tests := []struct {
		name    string
		samples []time.Duration
		want    time.Duration
	}{
		{"single", ms(7), 7 * time.Millisecond},
		{"odd unsorted", ms(30, 10, 20), 20 * time.Millisecond},
		{"even averages middle pair", ms(40, 10, 30, 20), 25 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := metrics.Median(tt.samples)
			if !ok {
				t.Fatal("expected median to be defined")
			}
			if got != tt.want {
				t.Errorf("Median() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	samples := ms(3, 1, 2)
	metrics.Median(samples)
	if samples[0] != 3*time.Millisecond || samples[1] != time.Millisecond {
		t.Fatalf("input was mutated: %v", samples)
	}
}

func TestP95UndefinedBelowTwentySamples(t *testing.T) {
	samples := make([]time.Duration, 19)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Millisecond
	}
	if _, ok := metrics.P95(samples); ok {
		t.Fatal("expected p95 to be undefined for 19 samples")
	}
}

func TestP95ExclusiveMethod(t *testing.T) {
	// 1..20ms: boundary interpolates 19ms and 20ms with weights 1/20 and 19/20.
	twenty := make([]time.Duration, 20)
	for i := range twenty {
		twenty[i] = time.Duration(i+1) * time.Millisecond
	}
	got, ok := metrics.P95(twenty)
	if !ok {
		t.Fatal("expected p95 to be defined for 20 samples")
	}
	if want := 19950 * time.Microsecond; got != want {
		t.Errorf("P95(1..20ms) = %s, want %s", got, want)
	}

	hundred := make([]time.Duration, 100)
	for i := range hundred {
		// reverse order to make sure sorting happens
		hundred[i] = time.Duration(100-i) * time.Millisecond
	}
	got, ok = metrics.P95(hundred)
	if !ok {
		t.Fatal("expected p95 to be defined for 100 samples")
	}
	if want := 95950 * time.Microsecond; got != want {
		t.Errorf("P95(1..100ms) = %s, want %s", got, want)
	}
}

func TestP95ConstantSamples(t *testing.T) {
	samples := make([]time.Duration, 25)
	for i := range samples {
		samples[i] = 80 * time.Millisecond
	}
	got, ok := metrics.P95(samples)
	if !ok || got != 80*time.Millisecond {
		t.Fatalf("P95(constant) = %s (ok=%v), want 80ms", got, ok)
	}
}
