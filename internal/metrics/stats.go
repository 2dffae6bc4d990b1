package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// PhaseStats accumulates outcomes for a single phase. It is safe for
// concurrent use by every worker admitted into the phase.
type PhaseStats struct {
	mu                sync.Mutex
	latencies         []time.Duration
	hist              *hdrhistogram.Histogram
	successes         int64
	failures          int64
	httpFailures      int64
	transportFailures int64
	tokens            int64
	errorsByType      map[string]int64
	start             time.Time
}

// Snapshot is a point-in-time view of a running phase. Percentiles are
// histogram approximations intended for live display only.
type Snapshot struct {
	Completed      int64
	Successes      int64
	Failures       int64
	Tokens         int64
	Samples        int
	P50Latency     time.Duration
	P95Latency     time.Duration
	Elapsed        time.Duration
	RequestsPerSec float64
}

// NewPhaseStats creates an accumulator sized for the expected request count.
func NewPhaseStats(expected int) *PhaseStats {
	if expected < 0 {
		expected = 0
	}
	// Track latencies from 1µs up to 10 minutes with 3 significant figures.
	h := hdrhistogram.New(1, 600_000_000, 3)
	return &PhaseStats{
		latencies:    make([]time.Duration, 0, expected),
		hist:         h,
		errorsByType: make(map[string]int64),
		start:        time.Now(),
	}
}

// Start marks the beginning of the phase for live rate calculations.
func (s *PhaseStats) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = time.Now()
}

// Record adds one outcome.
func (s *PhaseStats) Record(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.HasLatency {
		s.latencies = append(s.latencies, o.Latency)
		us := o.Latency.Microseconds()
		if us < s.hist.LowestTrackableValue() {
			us = s.hist.LowestTrackableValue()
		}
		if us > s.hist.HighestTrackableValue() {
			us = s.hist.HighestTrackableValue()
		}
		_ = s.hist.RecordValue(us)
	}

	switch o.Class {
	case Success:
		s.successes++
		if o.Tokens > 0 {
			s.tokens += o.Tokens
		}
		return
	case HTTPFailure:
		s.httpFailures++
	default:
		s.transportFailures++
	}
	s.failures++
	s.errorsByType[errorLabel(o)]++
}

// Snapshot returns live counters for progress display.
func (s *PhaseStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := s.successes + s.failures
	snap := Snapshot{
		Completed: completed,
		Successes: s.successes,
		Failures:  s.failures,
		Tokens:    s.tokens,
		Samples:   len(s.latencies),
		Elapsed:   time.Since(s.start),
	}
	if s.hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(s.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P95Latency = time.Duration(s.hist.ValueAtQuantile(95)) * time.Microsecond
	}
	if snap.Elapsed > 0 && completed > 0 {
		snap.RequestsPerSec = float64(completed) / snap.Elapsed.Seconds()
	}
	return snap
}

// Report freezes the accumulated state into a PhaseReport. requests is the
// number of exchanges issued and elapsed the phase wall-clock time.
func (s *PhaseStats) Report(concurrency, requests int, elapsed time.Duration) PhaseReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := PhaseReport{
		Concurrency:       concurrency,
		Requests:          requests,
		Success:           s.successes,
		Fail:              s.failures,
		HTTPFailures:      s.httpFailures,
		TransportFailures: s.transportFailures,
		Samples:           len(s.latencies),
		TotalTokens:       s.tokens,
		Duration:          elapsed,
	}

	if median, ok := Median(s.latencies); ok {
		report.MedianLatency = &median
	}
	if p95, ok := P95(s.latencies); ok {
		report.P95Latency = &p95
	}

	if elapsed > 0 {
		seconds := elapsed.Seconds()
		report.ThroughputRPS = float64(requests) / seconds
		report.TokensPerSecond = float64(s.tokens) / seconds
	}

	if len(s.errorsByType) > 0 {
		report.Errors = make(map[string]int, len(s.errorsByType))
		for k, v := range s.errorsByType {
			report.Errors[k] = int(v)
		}
	}

	return report
}

func errorLabel(o Outcome) string {
	if o.ErrorKind != "" {
		return o.ErrorKind
	}
	if o.Class == HTTPFailure && o.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", o.StatusCode)
	}
	return "Unknown error"
}
