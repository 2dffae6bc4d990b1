package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sweepfire",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Request flags
	flags.String("endpoint", "", "Base API URL; requests go to <endpoint>/chat/completions")
	flags.String("model", DefaultModel, "Model name to call")
	flags.String("prompt", DefaultPrompt, "Prompt text if --prompts-file is omitted")
	flags.String("prompts-file", "", "File with one prompt per line; overrides --prompt")
	flags.Float64("temperature", 0, "Sampling temperature")
	flags.Int("max-tokens", DefaultMaxTokens, "max_tokens parameter")
	flags.String("api-key", "", "Bearer token sent in the Authorization header")

	// Sweep flags
	flags.IntP("requests", "n", DefaultRequests, "Total requests per phase")
	flags.IntSliceP("concurrency", "c", DefaultConcurrency, "Concurrency levels to sweep, in order (e.g. 1,2,4)")
	flags.String("timeout", DefaultTimeout.String(), "Per-request timeout as a duration (30s) or bare seconds (30, 2.5)")
	flags.IntP("rate", "r", 0, "Requests per second limit within a phase (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing requests (uniform or poisson)")
	flags.Int64("seed", 0, "Seed for prompt selection and poisson pacing (0 means time-based)")

	// Output flags
	flags.String("out", "", "Write the sweep summary to this file (.json, .yaml or .yml)")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.Bool("dashboard", false, "Show live terminal dashboard with phase progress")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.Bool("log-errors", true, "Log each failed request at warn level")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", string(LogFormatConsole), "Log format (console or json)")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Per-phase thresholds (repeatable, e.g., 'latency:p95 < 2.5')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", string(TracingProtocolGRPC), "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.String("tracing-service-name", DefaultServiceName, "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1, "Fraction of traces to sample (0-1)")
	flags.Bool("tracing-propagate", true, "Inject W3C trace context into outgoing requests")

	// Prometheus flags
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address while the sweep runs")
	flags.String("metrics-push-url", "", "Push final metrics to this Pushgateway URL")
	flags.String("metrics-job", DefaultMetricsJob, "Pushgateway job name")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("endpoint") {
		val, err := fs.GetString("endpoint")
		if err != nil {
			return err
		}
		cfg.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("model") {
		val, err := fs.GetString("model")
		if err != nil {
			return err
		}
		cfg.Model = val
	}
	if fs.Changed("prompt") {
		val, err := fs.GetString("prompt")
		if err != nil {
			return err
		}
		cfg.Prompt = val
	}
	if fs.Changed("prompts-file") {
		val, err := fs.GetString("prompts-file")
		if err != nil {
			return err
		}
		cfg.PromptsFile = strings.TrimSpace(val)
	}
	if fs.Changed("temperature") {
		val, err := fs.GetFloat64("temperature")
		if err != nil {
			return err
		}
		cfg.Temperature = val
	}
	if fs.Changed("max-tokens") {
		val, err := fs.GetInt("max-tokens")
		if err != nil {
			return err
		}
		cfg.MaxTokens = val
	}
	if fs.Changed("api-key") {
		val, err := fs.GetString("api-key")
		if err != nil {
			return err
		}
		cfg.APIKey = strings.TrimSpace(val)
	}
	if fs.Changed("requests") {
		val, err := fs.GetInt("requests")
		if err != nil {
			return err
		}
		cfg.Requests = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetIntSlice("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("timeout") {
		raw, err := fs.GetString("timeout")
		if err != nil {
			return err
		}
		val, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", raw, err)
		}
		cfg.Timeout = val
	}
	if fs.Changed("rate") {
		val, err := fs.GetInt("rate")
		if err != nil {
			return err
		}
		cfg.Rate = val
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("out") {
		val, err := fs.GetString("out")
		if err != nil {
			return err
		}
		cfg.Out = strings.TrimSpace(val)
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.Log.Format = LogFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = TracingProtocol(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = &val
	}

	if fs.Changed("metrics-listen") {
		val, err := fs.GetString("metrics-listen")
		if err != nil {
			return err
		}
		cfg.Metrics.Listen = strings.TrimSpace(val)
	}
	if fs.Changed("metrics-push-url") {
		val, err := fs.GetString("metrics-push-url")
		if err != nil {
			return err
		}
		cfg.Metrics.PushURL = strings.TrimSpace(val)
	}
	if fs.Changed("metrics-job") {
		val, err := fs.GetString("metrics-job")
		if err != nil {
			return err
		}
		cfg.Metrics.Job = strings.TrimSpace(val)
	}

	return nil
}
