package output

import (
	"math"

	"github.com/torosent/sweepfire/internal/metrics"
)

// PhaseRecord is the exported shape of one phase. Latencies are seconds
// rounded to 3 decimals and rates to 2; undefined latencies stay nil.
type PhaseRecord struct {
	Concurrency     int      `json:"concurrency" yaml:"concurrency"`
	Requests        int      `json:"requests" yaml:"requests"`
	Success         int64    `json:"success" yaml:"success"`
	Fail            int64    `json:"fail" yaml:"fail"`
	MedianLatencyS  *float64 `json:"median_latency_s" yaml:"median_latency_s"`
	P95LatencyS     *float64 `json:"p95_latency_s" yaml:"p95_latency_s"`
	ThroughputRPS   float64  `json:"throughput_rps" yaml:"throughput_rps"`
	TokensPerSecond float64  `json:"tokens_per_second" yaml:"tokens_per_second"`
}

// NewRecord converts a phase report to its exported form.
func NewRecord(r metrics.PhaseReport) PhaseRecord {
	rec := PhaseRecord{
		Concurrency:     r.Concurrency,
		Requests:        r.Requests,
		Success:         r.Success,
		Fail:            r.Fail,
		ThroughputRPS:   round(r.ThroughputRPS, 2),
		TokensPerSecond: round(r.TokensPerSecond, 2),
	}
	if r.MedianLatency != nil {
		v := round(r.MedianLatency.Seconds(), 3)
		rec.MedianLatencyS = &v
	}
	if r.P95Latency != nil {
		v := round(r.P95Latency.Seconds(), 3)
		rec.P95LatencyS = &v
	}
	return rec
}

// NewRecords converts phases in order.
func NewRecords(phases []metrics.PhaseReport) []PhaseRecord {
	out := make([]PhaseRecord, 0, len(phases))
	for _, p := range phases {
		out = append(out, NewRecord(p))
	}
	return out
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
