// Package promexport exposes sweep results as Prometheus metrics, either on a
// scrape endpoint while the sweep runs or pushed to a Pushgateway at the end.
package promexport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/torosent/sweepfire/internal/metrics"
)

const namespace = "sweepfire"

// Exporter holds the sweep metrics in a private registry.
type Exporter struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	tokens      *prometheus.CounterVec
	phaseRPS    *prometheus.GaugeVec
	phaseTPS    *prometheus.GaugeVec
	phaseMedian *prometheus.GaugeVec
	phaseP95    *prometheus.GaugeVec
	phaseFail   *prometheus.GaugeVec
}

func New() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Completion requests issued, by concurrency level and outcome.",
			},
			[]string{"concurrency", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Latency of completed exchanges in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"concurrency"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens reported by successful completions.",
			},
			[]string{"concurrency"},
		),
		phaseRPS:    phaseGauge("phase_throughput_rps", "Requests per second of a finished phase."),
		phaseTPS:    phaseGauge("phase_tokens_per_second", "Tokens per second of a finished phase."),
		phaseMedian: phaseGauge("phase_median_latency_seconds", "Median latency of a finished phase."),
		phaseP95:    phaseGauge("phase_p95_latency_seconds", "95th percentile latency of a finished phase."),
		phaseFail:   phaseGauge("phase_failure_ratio", "Failed requests divided by requests for a finished phase."),
	}

	registry.MustRegister(e.requests)
	registry.MustRegister(e.latency)
	registry.MustRegister(e.tokens)
	registry.MustRegister(e.phaseRPS)
	registry.MustRegister(e.phaseTPS)
	registry.MustRegister(e.phaseMedian)
	registry.MustRegister(e.phaseP95)
	registry.MustRegister(e.phaseFail)

	return e
}

func phaseGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
		[]string{"concurrency"},
	)
}

// PhaseRecorder records outcomes of one concurrency level.
type PhaseRecorder struct {
	e     *Exporter
	label string
}

// Recorder returns the outcome recorder for a phase at concurrency.
func (e *Exporter) Recorder(concurrency int) *PhaseRecorder {
	return &PhaseRecorder{e: e, label: strconv.Itoa(concurrency)}
}

func (r *PhaseRecorder) Record(o metrics.Outcome) {
	r.e.requests.WithLabelValues(r.label, o.Class.String()).Inc()
	if o.HasLatency {
		r.e.latency.WithLabelValues(r.label).Observe(o.Latency.Seconds())
	}
	if o.Class == metrics.Success && o.Tokens > 0 {
		r.e.tokens.WithLabelValues(r.label).Add(float64(o.Tokens))
	}
}

// ObservePhase publishes the summary of a finished phase. Undefined
// latencies leave their gauge unset.
func (e *Exporter) ObservePhase(report metrics.PhaseReport) {
	label := strconv.Itoa(report.Concurrency)
	e.phaseRPS.WithLabelValues(label).Set(report.ThroughputRPS)
	e.phaseTPS.WithLabelValues(label).Set(report.TokensPerSecond)
	e.phaseFail.WithLabelValues(label).Set(report.FailureRate())
	if report.MedianLatency != nil {
		e.phaseMedian.WithLabelValues(label).Set(report.MedianLatency.Seconds())
	}
	if report.P95Latency != nil {
		e.phaseP95.WithLabelValues(label).Set(report.P95Latency.Seconds())
	}
}

// Handler returns the Prometheus scrape handler.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the returned stop function is called.
func (e *Exporter) Serve(addr string) (stop func(context.Context) error, err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close()
		}
	}()
	return srv.Shutdown, nil
}

// Push sends the current metrics to a Pushgateway, grouped by run ID.
func (e *Exporter) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).Gatherer(e.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
