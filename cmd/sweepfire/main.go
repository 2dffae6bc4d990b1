package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/torosent/sweepfire/internal/auth"
	"github.com/torosent/sweepfire/internal/config"
	"github.com/torosent/sweepfire/internal/dashboard"
	"github.com/torosent/sweepfire/internal/httpclient"
	"github.com/torosent/sweepfire/internal/logging"
	"github.com/torosent/sweepfire/internal/output"
	"github.com/torosent/sweepfire/internal/promexport"
	"github.com/torosent/sweepfire/internal/prompts"
	"github.com/torosent/sweepfire/internal/runner"
	"github.com/torosent/sweepfire/internal/sweep"
	"github.com/torosent/sweepfire/internal/threshold"
	"github.com/torosent/sweepfire/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 10 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	set, err := loadPrompts(cfg)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	provider := auth.FromAPIKey(cfg.APIKey)
	if provider != nil {
		defer provider.Close()
	}
	builder, err := httpclient.NewRequestBuilderWithAuth(cfg, provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runID := ulid.Make().String()
	logger = logger.With(zap.String("run_id", runID))

	tp, err := tracing.Init(ctx, runID, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	var exporter *promexport.Exporter
	if cfg.Metrics.Enabled() {
		exporter = promexport.New()
		if cfg.Metrics.Listen != "" {
			stop, err := exporter.Serve(cfg.Metrics.Listen)
			if err != nil {
				return err
			}
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Listen))
			defer func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
				defer done()
				_ = stop(shutdownCtx)
			}()
		}
	}

	opts := sweep.Options{
		Levels:        cfg.Concurrency,
		Requests:      cfg.Requests,
		Timeout:       cfg.Timeout,
		Builder:       builder,
		Prompts:       set,
		Seed:          cfg.Seed,
		RatePerSecond: cfg.Rate,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		Logger:        logger,
		LogErrors:     cfg.LogErrors,
		Exporter:      exporter,
		RunID:         runID,
	}
	if tp.Enabled() {
		opts.Tracer = tp.Tracer()
		opts.Propagate = tp.ShouldPropagate()
	}

	var dash *dashboard.Dashboard
	switch {
	case cfg.Dashboard:
		dash = dashboard.New(dashboard.SweepInfo{
			Target:   builder.Target(),
			Model:    cfg.Model,
			RunID:    runID,
			Levels:   cfg.Concurrency,
			Requests: cfg.Requests,
		}, cancel)
		dash.Start()
		opts.Observers = append(opts.Observers, dash)
	case !cfg.JSONOutput:
		progress := output.NewProgressReporter(stdout, progressInterval)
		defer progress.Stop()
		opts.Observers = append(opts.Observers, progress)
	}

	s, err := sweep.New(opts)
	if err != nil {
		if dash != nil {
			_ = dash.Stop()
		}
		return err
	}

	report, sweepErr := s.Run(ctx)
	if dash != nil {
		if err := dash.Stop(); err != nil {
			logger.Warn("dashboard stopped with error", zap.Error(err))
		}
	}

	if err := writeResults(cfg, report, thresholds, stdout, logger); err != nil {
		return err
	}

	if exporter != nil && cfg.Metrics.PushURL != "" {
		pushCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := exporter.Push(pushCtx, cfg.Metrics.PushURL, cfg.Metrics.Job, runID); err != nil {
			logger.Warn("pushing metrics failed", zap.Error(err))
		}
	}

	if sweepErr != nil {
		return fmt.Errorf("sweep interrupted after %d of %d phases: %w", len(report.Phases), len(cfg.Concurrency), sweepErr)
	}

	if len(thresholds) > 0 {
		results := threshold.NewEvaluator(thresholds).Evaluate(report.Phases)
		if !cfg.JSONOutput {
			printThresholdResults(stdout, results)
		}
		if !threshold.AllPassed(results) {
			return fmt.Errorf("%d threshold check(s) failed", countFailed(results))
		}
	}
	return nil
}

func loadPrompts(cfg *config.Config) (*prompts.Set, error) {
	if cfg.PromptsFile != "" {
		return prompts.Load(cfg.PromptsFile)
	}
	return prompts.New(cfg.Prompt)
}

func writeResults(cfg *config.Config, report sweep.Report, thresholds []threshold.Threshold, stdout io.Writer, logger *zap.Logger) error {
	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, report.Phases); err != nil {
			return err
		}
	} else {
		output.PrintSweepReport(stdout, report)
	}

	if cfg.Out != "" {
		if err := output.WriteReport(cfg.Out, report.Phases); err != nil {
			return err
		}
		if cfg.JSONOutput {
			logger.Info("wrote results", zap.String("path", cfg.Out))
		} else {
			fmt.Fprintf(stdout, "\nWrote results to %s\n", cfg.Out)
		}
	}

	if cfg.HTMLOutput != "" {
		results := threshold.NewEvaluator(thresholds).Evaluate(report.Phases)
		if err := writeHTMLReport(cfg, report, results); err != nil {
			return err
		}
		logger.Info("wrote html report", zap.String("path", cfg.HTMLOutput))
	}
	return nil
}

func writeHTMLReport(cfg *config.Config, report sweep.Report, results []threshold.Result) error {
	f, err := os.Create(cfg.HTMLOutput)
	if err != nil {
		return fmt.Errorf("failed to create HTML report file: %w", err)
	}
	defer f.Close()

	return output.GenerateHTMLReport(f, report, results, output.ReportMetadata{
		TargetURL: httpclient.CompletionsURL(cfg.Endpoint),
		Model:     cfg.Model,
		Requests:  cfg.Requests,
	})
}

func printThresholdResults(w io.Writer, results []threshold.Result) {
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

func countFailed(results []threshold.Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch model {
	case config.ArrivalModelPoisson:
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
