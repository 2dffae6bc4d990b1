package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/torosent/sweepfire/internal/metrics"
)

// Threshold represents a performance assertion checked against every phase.
type Threshold struct {
	Metric    string  // "latency", "failed", "requests" or "tokens"
	Aggregate string  // "median", "p95", "rate" or "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // latencies in seconds
	Raw       string  // original string for display
}

// Result is the outcome of one threshold at one concurrency level.
type Result struct {
	Threshold   Threshold
	Concurrency int
	Actual      float64
	Pass        bool
	Message     string
}

// Evaluator evaluates thresholds against phase reports.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks every threshold against every phase, in phase order.
func (e *Evaluator) Evaluate(phases []metrics.PhaseReport) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds)*len(phases))
	for _, phase := range phases {
		for _, t := range e.thresholds {
			results = append(results, evaluateOne(t, phase))
		}
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, phase metrics.PhaseReport) Result {
	actual, err := extractMetricValue(t, phase)
	if err != nil {
		return Result{
			Threshold:   t,
			Concurrency: phase.Concurrency,
			Pass:        false,
			Message:     fmt.Sprintf("✗ [c=%d] %s: %v", phase.Concurrency, t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold:   t,
		Concurrency: phase.Concurrency,
		Actual:      actual,
		Pass:        pass,
		Message:     fmt.Sprintf("%s [c=%d] %s: %.3f %s %.3f", status, phase.Concurrency, t.Raw, actual, t.Operator, t.Value),
	}
}

var pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var (
	validMetrics    = []string{"latency", "failed", "requests", "tokens"}
	validAggregates = map[string][]string{
		"latency":  {"median", "p95"},
		"failed":   {"rate", "count"},
		"requests": {"rate", "count"},
		"tokens":   {"rate", "count"},
	}
	validOperators = []string{"<", "<=", ">", ">=", "=="}
)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "latency:p95 < 2.5"      (p95 latency in seconds)
//   - "latency:median < 1"     (median latency in seconds)
//   - "failed:rate < 0.01"     (failure ratio)
//   - "failed:count == 0"      (failed requests)
//   - "requests:rate > 10"     (throughput in requests per second)
//   - "tokens:rate > 100"      (tokens per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'latency:p95 < 2.5')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !slices.Contains(validMetrics, metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(validMetrics, ", "))
	}
	if aggregates := validAggregates[metric]; !slices.Contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !slices.Contains(validOperators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(validOperators, ", "))
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func extractMetricValue(t Threshold, phase metrics.PhaseReport) (float64, error) {
	switch t.Metric {
	case "latency":
		return extractLatencyMetric(t.Aggregate, phase)
	case "failed":
		return countOrRate(t, float64(phase.Fail), phase.FailureRate())
	case "requests":
		return countOrRate(t, float64(phase.Requests), phase.ThroughputRPS)
	case "tokens":
		return countOrRate(t, float64(phase.TotalTokens), phase.TokensPerSecond)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, phase metrics.PhaseReport) (float64, error) {
	switch aggregate {
	case "median":
		if phase.MedianLatency == nil {
			return 0, fmt.Errorf("median latency undefined (no latency samples)")
		}
		return phase.MedianLatency.Seconds(), nil
	case "p95":
		if phase.P95Latency == nil {
			return 0, fmt.Errorf("p95 latency undefined (%d samples, need 20)", phase.Samples)
		}
		return phase.P95Latency.Seconds(), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for latency", aggregate)
	}
}

func countOrRate(t Threshold, count, rate float64) (float64, error) {
	switch t.Aggregate {
	case "count":
		return count, nil
	case "rate":
		return rate, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s (use 'count' or 'rate')", t.Aggregate, t.Metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
