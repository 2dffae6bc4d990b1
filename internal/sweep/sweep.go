// Package sweep runs one load phase per concurrency level, strictly in the
// order the levels were given, and collects a PhaseReport for each.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/torosent/sweepfire/internal/completion"
	"github.com/torosent/sweepfire/internal/httpclient"
	"github.com/torosent/sweepfire/internal/logging"
	"github.com/torosent/sweepfire/internal/metrics"
	"github.com/torosent/sweepfire/internal/promexport"
	"github.com/torosent/sweepfire/internal/prompts"
	"github.com/torosent/sweepfire/internal/runner"
	"github.com/torosent/sweepfire/internal/tracing"
)

// ErrInvalidOptions is wrapped by every error New returns.
var ErrInvalidOptions = errors.New("invalid sweep options")

// Observer is notified as phases start and finish. Calls are made from the
// goroutine running the sweep.
type Observer interface {
	PhaseStarted(concurrency, requests int, stats *metrics.PhaseStats)
	PhaseFinished(report metrics.PhaseReport)
}

// ClientFactory builds the HTTP client for one phase.
type ClientFactory func(timeout time.Duration, concurrency int) *http.Client

type Options struct {
	Levels        []int
	Requests      int
	Timeout       time.Duration
	Builder       *httpclient.RequestBuilder
	Prompts       *prompts.Set
	Seed          int64 // 0 means time-based
	RatePerSecond int
	ArrivalModel  runner.ArrivalModel

	Logger    *zap.Logger
	LogErrors bool

	Tracer    trace.Tracer // nil disables spans
	Propagate bool

	Exporter      *promexport.Exporter
	Observers     []Observer
	ClientFactory ClientFactory

	RunID string // generated when empty
}

// Report is the ordered result of a sweep.
type Report struct {
	RunID     string
	StartedAt time.Time
	Phases    []metrics.PhaseReport
}

type Sweep struct {
	opts   Options
	runID  string
	picker *prompts.Picker
}

func New(opts Options) (*Sweep, error) {
	if len(opts.Levels) == 0 {
		return nil, fmt.Errorf("%w: at least one concurrency level is required", ErrInvalidOptions)
	}
	for idx, level := range opts.Levels {
		if level < 1 {
			return nil, fmt.Errorf("%w: level %d at index %d must be >= 1", ErrInvalidOptions, level, idx)
		}
	}
	if opts.Requests < 0 {
		return nil, fmt.Errorf("%w: requests must be >= 0", ErrInvalidOptions)
	}
	if opts.Builder == nil {
		return nil, fmt.Errorf("%w: request builder is required", ErrInvalidOptions)
	}
	if opts.Prompts == nil || opts.Prompts.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, prompts.ErrNoPrompts)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ClientFactory == nil {
		opts.ClientFactory = httpclient.NewClient
	}
	if opts.RunID == "" {
		opts.RunID = ulid.Make().String()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Sweep{
		opts:   opts,
		runID:  opts.RunID,
		picker: prompts.NewPicker(opts.Prompts, rand.NewSource(seed)),
	}, nil
}

// RunID identifies this sweep in logs, spans and exported metrics.
func (s *Sweep) RunID() string {
	return s.runID
}

// Run executes every phase in order. Per-request failures never stop the
// sweep; cancelling ctx does, returning the phases completed so far.
func (s *Sweep) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:     s.runID,
		StartedAt: time.Now(),
		Phases:    make([]metrics.PhaseReport, 0, len(s.opts.Levels)),
	}
	logger := s.opts.Logger.With(zap.String("run_id", s.runID))

	for _, level := range s.opts.Levels {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		phase := s.runPhase(ctx, logger, level)
		if err := ctx.Err(); err != nil {
			logger.Warn("sweep interrupted", zap.Int("concurrency", level), zap.Error(err))
			return report, err
		}
		report.Phases = append(report.Phases, phase)
	}
	return report, nil
}

func (s *Sweep) runPhase(ctx context.Context, logger *zap.Logger, level int) metrics.PhaseReport {
	logger = logger.With(zap.Int("concurrency", level))

	client := s.opts.ClientFactory(s.opts.Timeout, level)
	defer client.CloseIdleConnections()

	stats := metrics.NewPhaseStats(s.opts.Requests)
	recorders := completion.MultiRecorder{stats}
	if s.opts.Exporter != nil {
		recorders = append(recorders, s.opts.Exporter.Recorder(level))
	}

	var issuerOpts []completion.Option
	var phaseSpan trace.Span
	if s.opts.Tracer != nil {
		ctx, phaseSpan = tracing.StartPhaseSpan(ctx, s.opts.Tracer, s.runID, level, s.opts.Requests)
		issuerOpts = append(issuerOpts, completion.WithTracer(s.opts.Tracer, s.opts.Propagate, tracing.PhaseAttributes(s.runID, level)...))
	}
	issuer := completion.NewIssuer(client, s.opts.Builder, s.picker, recorders, issuerOpts...)
	failures := logging.NewFailureLogger(logger, s.opts.LogErrors)

	for _, o := range s.opts.Observers {
		o.PhaseStarted(level, s.opts.Requests, stats)
	}
	logger.Info("phase started", zap.Int("requests", s.opts.Requests))

	stats.Start()
	result := runner.New(runner.Options{
		Concurrency:   level,
		TotalRequests: s.opts.Requests,
		RatePerSecond: s.opts.RatePerSecond,
		ArrivalModel:  s.opts.ArrivalModel,
		RandomSeed:    s.opts.Seed,
		Requester:     runner.WithLogging(issuer, failures),
	}).Run(ctx)

	report := stats.Report(level, int(result.Total), result.Duration)

	if phaseSpan != nil {
		var err error
		if report.Fail > 0 {
			err = fmt.Errorf("%d of %d requests failed", report.Fail, report.Requests)
		}
		tracing.EndSpan(phaseSpan, err)
	}
	if s.opts.Exporter != nil {
		s.opts.Exporter.ObservePhase(report)
	}
	logger.Info("phase finished",
		zap.Int64("success", report.Success),
		zap.Int64("fail", report.Fail),
		zap.Duration("elapsed", report.Duration),
		zap.Float64("throughput_rps", report.ThroughputRPS),
		zap.Float64("tokens_per_second", report.TokensPerSecond),
	)
	for _, o := range s.opts.Observers {
		o.PhaseFinished(report)
	}
	return report
}
