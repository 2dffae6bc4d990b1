package metrics

import "time"

// PhaseReport is the immutable summary of one phase.
type PhaseReport struct {
	Concurrency int
	Requests    int
	Success     int64
	Fail        int64

	// HTTPFailures and TransportFailures split Fail for diagnostics; the
	// exported summary only carries Fail.
	HTTPFailures      int64
	TransportFailures int64

	// Samples is the number of recorded latencies.
	Samples int

	// MedianLatency is nil when no latency was recorded, P95Latency when
	// fewer than 20 were.
	MedianLatency *time.Duration
	P95Latency    *time.Duration

	TotalTokens     int64
	Duration        time.Duration
	ThroughputRPS   float64
	TokensPerSecond float64
	Errors          map[string]int
}

// FailureRate returns Fail/Requests, or 0 for an empty phase.
func (r PhaseReport) FailureRate() float64 {
	if r.Requests == 0 {
		return 0
	}
	return float64(r.Fail) / float64(r.Requests)
}
