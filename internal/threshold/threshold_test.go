package threshold

import (
	"testing"
	"time"

	"github.com/torosent/sweepfire/internal/metrics"
)

func dur(d time.Duration) *time.Duration { return &d }

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "valid p95 latency threshold",
			input: "latency:p95 < 2.5",
			want: Threshold{
				Metric:    "latency",
				Aggregate: "p95",
				Operator:  "<",
				Value:     2.5,
				Raw:       "latency:p95 < 2.5",
			},
		},
		{
			name:  "valid failure rate threshold",
			input: "failed:rate < 0.01",
			want: Threshold{
				Metric:    "failed",
				Aggregate: "rate",
				Operator:  "<",
				Value:     0.01,
				Raw:       "failed:rate < 0.01",
			},
		},
		{
			name:  "valid median latency with <=",
			input: "  latency:median <= 1  ",
			want: Threshold{
				Metric:    "latency",
				Aggregate: "median",
				Operator:  "<=",
				Value:     1,
				Raw:       "latency:median <= 1",
			},
		},
		{
			name:  "valid tokens rate threshold with >",
			input: "tokens:rate>100",
			want: Threshold{
				Metric:    "tokens",
				Aggregate: "rate",
				Operator:  ">",
				Value:     100,
				Raw:       "tokens:rate>100",
			},
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
		{
			name:      "invalid format - missing operator",
			input:     "latency:p95 2",
			wantError: true,
		},
		{
			name:      "invalid metric",
			input:     "http_req_duration:p95 < 500",
			wantError: true,
		},
		{
			name:      "aggregate not valid for metric",
			input:     "latency:rate < 5",
			wantError: true,
		},
		{
			name:      "invalid aggregate",
			input:     "latency:p99 < 5",
			wantError: true,
		},
		{
			name:      "invalid operator",
			input:     "latency:p95 << 5",
			wantError: true,
		},
		{
			name:      "invalid value - not a number",
			input:     "latency:p95 < abc",
			wantError: true,
		},
		{
			name:      "invalid value - two decimal points",
			input:     "latency:p95 < 1.2.3",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("Parse() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		wantCount int
		wantError bool
	}{
		{
			name: "multiple valid thresholds",
			input: []string{
				"latency:p95 < 2.5",
				"failed:rate < 0.01",
				"requests:rate > 10",
			},
			wantCount: 3,
		},
		{
			name:      "empty slice",
			input:     []string{},
			wantCount: 0,
		},
		{
			name: "one valid, one invalid",
			input: []string{
				"latency:p95 < 2.5",
				"invalid threshold",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMultiple(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseMultiple() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && len(got) != tt.wantCount {
				t.Errorf("ParseMultiple() returned %d thresholds, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func samplePhases() []metrics.PhaseReport {
	return []metrics.PhaseReport{
		{
			Concurrency:     1,
			Requests:        100,
			Success:         100,
			Samples:         100,
			MedianLatency:   dur(800 * time.Millisecond),
			P95Latency:      dur(1200 * time.Millisecond),
			TotalTokens:     5000,
			ThroughputRPS:   1.2,
			TokensPerSecond: 60,
		},
		{
			Concurrency:     8,
			Requests:        100,
			Success:         96,
			Fail:            4,
			Samples:         100,
			MedianLatency:   dur(1500 * time.Millisecond),
			P95Latency:      dur(3 * time.Second),
			TotalTokens:     4800,
			ThroughputRPS:   5.3,
			TokensPerSecond: 254.4,
		},
	}
}

func TestEvaluatorChecksEveryPhase(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "p95 fails only at high concurrency",
			thresholds: []string{"latency:p95 < 2.5"},
			wantPass:   []bool{true, false},
		},
		{
			name:       "failure rate and throughput",
			thresholds: []string{"failed:rate < 0.05", "requests:rate > 1"},
			wantPass:   []bool{true, true, true, true},
		},
		{
			name:       "failure count",
			thresholds: []string{"failed:count == 0"},
			wantPass:   []bool{true, false},
		},
		{
			name:       "tokens",
			thresholds: []string{"tokens:rate > 100", "tokens:count >= 4800"},
			wantPass:   []bool{false, true, true, true},
		},
		{
			name:       "median",
			thresholds: []string{"latency:median <= 1.5"},
			wantPass:   []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			results := NewEvaluator(thresholds).Evaluate(samplePhases())
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}
			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("result[%d] %q at c=%d: got pass=%v, want %v (actual=%.3f)",
						i, result.Threshold.Raw, result.Concurrency, result.Pass, tt.wantPass[i], result.Actual)
				}
			}
		})
	}
}

func TestEvaluatorResultsFollowPhaseOrder(t *testing.T) {
	thresholds, err := ParseMultiple([]string{"latency:p95 < 10", "failed:rate < 1"})
	if err != nil {
		t.Fatal(err)
	}
	results := NewEvaluator(thresholds).Evaluate(samplePhases())
	want := []int{1, 1, 8, 8}
	for i, r := range results {
		if r.Concurrency != want[i] {
			t.Fatalf("result[%d] concurrency = %d, want %d", i, r.Concurrency, want[i])
		}
	}
	if !AllPassed(results) {
		t.Fatal("expected all thresholds to pass")
	}
}

func TestEvaluatorUndefinedLatencyFails(t *testing.T) {
	thresholds, err := ParseMultiple([]string{"latency:p95 < 100", "latency:median < 100"})
	if err != nil {
		t.Fatal(err)
	}
	phases := []metrics.PhaseReport{{Concurrency: 2, Requests: 10, Fail: 10}}
	results := NewEvaluator(thresholds).Evaluate(phases)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Pass {
			t.Errorf("%q should fail when latency is undefined", r.Threshold.Raw)
		}
	}
	if AllPassed(results) {
		t.Fatal("AllPassed should be false")
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if results := NewEvaluator(nil).Evaluate(samplePhases()); results != nil {
		t.Fatalf("expected nil results, got %v", results)
	}
	if !AllPassed(nil) {
		t.Fatal("no results should count as passing")
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than false", 100, "<", 50, false},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal true", 50, "<=", 100, true},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than false", 50, ">", 100, false},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal true", 150, ">=", 100, true},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareValues(tt.actual, tt.operator, tt.expected)
			if got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestExtractMetricValue(t *testing.T) {
	phase := samplePhases()[1]

	tests := []struct {
		name      string
		threshold Threshold
		want      float64
		wantError bool
	}{
		{"latency median", Threshold{Metric: "latency", Aggregate: "median"}, 1.5, false},
		{"latency p95", Threshold{Metric: "latency", Aggregate: "p95"}, 3, false},
		{"failed rate", Threshold{Metric: "failed", Aggregate: "rate"}, 0.04, false},
		{"failed count", Threshold{Metric: "failed", Aggregate: "count"}, 4, false},
		{"requests rate", Threshold{Metric: "requests", Aggregate: "rate"}, 5.3, false},
		{"requests count", Threshold{Metric: "requests", Aggregate: "count"}, 100, false},
		{"tokens rate", Threshold{Metric: "tokens", Aggregate: "rate"}, 254.4, false},
		{"tokens count", Threshold{Metric: "tokens", Aggregate: "count"}, 4800, false},
		{"unsupported metric", Threshold{Metric: "invalid_metric", Aggregate: "p95"}, 0, true},
		{"unsupported aggregate for metric", Threshold{Metric: "failed", Aggregate: "p95"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractMetricValue(tt.threshold, phase)
			if (err != nil) != tt.wantError {
				t.Errorf("extractMetricValue() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("extractMetricValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
