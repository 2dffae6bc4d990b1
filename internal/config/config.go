package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DefaultModel       = "deepseek-ai/DeepSeek-R1"
	DefaultPrompt      = "Hello"
	DefaultMaxTokens   = 100000
	DefaultRequests    = 100
	DefaultTimeout     = 30 * time.Second
	DefaultServiceName = "sweepfire"
	DefaultMetricsJob  = "sweepfire"
)

// DefaultConcurrency is the sweep used when no levels are configured.
var DefaultConcurrency = []int{1, 2, 4, 8, 16, 32}

type Config struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Model       string        `mapstructure:"model"`
	Prompt      string        `mapstructure:"prompt"`
	PromptsFile string        `mapstructure:"prompts_file"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Requests    int           `mapstructure:"requests"`
	Concurrency []int         `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Out         string        `mapstructure:"out"`
	APIKey      string        `mapstructure:"api_key"`
	Rate        int           `mapstructure:"rate"`
	Arrival     ArrivalConfig `mapstructure:"arrival"`
	Seed        int64         `mapstructure:"seed"`
	LogErrors   bool          `mapstructure:"log_errors"`
	Log         LogConfig     `mapstructure:"log"`
	JSONOutput  bool          `mapstructure:"json_output"`
	Dashboard   bool          `mapstructure:"dashboard"`
	HTMLOutput  string        `mapstructure:"html_output"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	Metrics     MetricsConfig `mapstructure:"metrics"`
	ConfigFile  string        `mapstructure:"-"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

type LogConfig struct {
	Level  string    `mapstructure:"level"`
	Format LogFormat `mapstructure:"format"`
}

type TracingProtocol string

const (
	TracingProtocolGRPC TracingProtocol = "grpc"
	TracingProtocolHTTP TracingProtocol = "http"
)

// TracingConfig configures OTLP span export. Tracing is off when Endpoint is empty.
type TracingConfig struct {
	Endpoint    string          `mapstructure:"endpoint"`
	Protocol    TracingProtocol `mapstructure:"protocol"`
	Insecure    bool            `mapstructure:"insecure"`
	ServiceName string          `mapstructure:"service_name"`
	SampleRate  float64         `mapstructure:"sample_rate"`
	Propagate   *bool           `mapstructure:"propagate"` // nil means propagate when enabled
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether trace context is injected into outgoing requests.
func (t TracingConfig) ShouldPropagate() bool {
	if !t.Enabled() {
		return false
	}
	return t.Propagate == nil || *t.Propagate
}

// MetricsConfig controls the Prometheus exposition of run metrics.
type MetricsConfig struct {
	Listen  string `mapstructure:"listen"`
	PushURL string `mapstructure:"push_url"`
	Job     string `mapstructure:"job"`
}

// Enabled reports whether any Prometheus output was requested.
func (m MetricsConfig) Enabled() bool {
	return strings.TrimSpace(m.Listen) != "" || strings.TrimSpace(m.PushURL) != ""
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	if strings.TrimSpace(c.Endpoint) == "" {
		issues = append(issues, "endpoint is required (use --help for usage information)")
	} else if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		issues = append(issues, fmt.Sprintf("endpoint %q must start with http:// or https://", c.Endpoint))
	}
	if strings.TrimSpace(c.Model) == "" {
		issues = append(issues, "model is required")
	}

	if len(c.Concurrency) == 0 {
		issues = append(issues, "at least one concurrency level is required")
	}
	for idx, level := range c.Concurrency {
		if level < 1 {
			issues = append(issues, fmt.Sprintf("concurrency[%d]: level must be >= 1, got %d", idx, level))
		}
		if level > 500 {
			warnings = append(warnings, fmt.Sprintf("WARNING: High concurrency configured (%d in flight). Ensure you have authorization to test the target system.", level))
		}
	}
	if c.Requests < 0 {
		issues = append(issues, "requests must be >= 0")
	}
	if c.MaxTokens < 0 {
		issues = append(issues, "max_tokens must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.", c.Rate))
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	issues = append(issues, validateArrivalConfig(c.Arrival)...)
	issues = append(issues, validateLogConfig(c.Log)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateArrivalConfig(arr ArrivalConfig) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform, ArrivalModelPoisson:
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

func validateLogConfig(lc LogConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log: level %q is not supported", lc.Level))
	}
	switch lc.Format {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		issues = append(issues, fmt.Sprintf("log: format must be 'console' or 'json', got %q", lc.Format))
	}
	return issues
}

func validateTracingConfig(tc TracingConfig) []string {
	if !tc.Enabled() {
		return nil
	}
	var issues []string
	switch tc.Protocol {
	case "", TracingProtocolGRPC, TracingProtocolHTTP:
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", tc.Protocol))
	}
	if tc.SampleRate < 0 || tc.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0 and 1")
	}
	return issues
}
