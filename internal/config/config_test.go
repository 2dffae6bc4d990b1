package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/torosent/sweepfire/internal/config"
)

func TestLoadWithoutArgsRequestsHelp(t *testing.T) {
	loader := config.NewLoader()

	_, err := loader.Load([]string{})
	if !errors.Is(err, config.ErrHelpRequested) {
		t.Fatalf("Load() error = %v, want ErrHelpRequested", err)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	loader := config.NewLoader()

	cfg, err := loader.Load([]string{"--endpoint", "http://localhost:8000/v1"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "deepseek-ai/DeepSeek-R1" {
		t.Errorf("Model = %q, want deepseek-ai/DeepSeek-R1", cfg.Model)
	}
	if cfg.Prompt != "Hello" {
		t.Errorf("Prompt = %q, want Hello", cfg.Prompt)
	}
	if cfg.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", cfg.Temperature)
	}
	if cfg.MaxTokens != 100000 {
		t.Errorf("MaxTokens = %d, want 100000", cfg.MaxTokens)
	}
	if cfg.Requests != 100 {
		t.Errorf("Requests = %d, want 100", cfg.Requests)
	}
	if !reflect.DeepEqual(cfg.Concurrency, []int{1, 2, 4, 8, 16, 32}) {
		t.Errorf("Concurrency = %v, want [1 2 4 8 16 32]", cfg.Concurrency)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s, want 30s", cfg.Timeout)
	}
	if cfg.Out != "" {
		t.Errorf("Out = %q, want empty", cfg.Out)
	}
	if !cfg.LogErrors {
		t.Error("LogErrors = false, want true")
	}
	if cfg.Tracing.Enabled() || cfg.Metrics.Enabled() {
		t.Error("tracing and metrics should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDefaultsAreNotShared(t *testing.T) {
	a := config.Defaults()
	a.Concurrency[0] = 99
	if config.Defaults().Concurrency[0] != 1 {
		t.Fatal("Defaults() returned a shared concurrency slice")
	}
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{
		"endpoint": "https://api.example.com/v1",
		"model": "llama",
		"prompt": "Say hi",
		"temperature": 0.2,
		"max_tokens": 64,
		"requests": 50,
		"concurrency": [2, 8],
		"timeout": 12.5,
		"out": "summary.json",
		"api_key": "sk-test",
		"thresholds": ["latency:p95 < 2"]
	}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path, "--model", "override"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Endpoint != "https://api.example.com/v1" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Model != "override" {
		t.Errorf("Model = %q, want override (flag wins)", cfg.Model)
	}
	if cfg.Prompt != "Say hi" {
		t.Errorf("Prompt = %q, want Say hi", cfg.Prompt)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.MaxTokens != 64 {
		t.Errorf("MaxTokens = %d, want 64", cfg.MaxTokens)
	}
	if cfg.Requests != 50 {
		t.Errorf("Requests = %d, want 50", cfg.Requests)
	}
	if !reflect.DeepEqual(cfg.Concurrency, []int{2, 8}) {
		t.Errorf("Concurrency = %v, want [2 8]", cfg.Concurrency)
	}
	if cfg.Timeout != 12500*time.Millisecond {
		t.Errorf("Timeout = %s, want 12.5s", cfg.Timeout)
	}
	if cfg.Out != "summary.json" {
		t.Errorf("Out = %q, want summary.json", cfg.Out)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.APIKey)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0] != "latency:p95 < 2" {
		t.Errorf("Thresholds = %v", cfg.Thresholds)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, path)
	}
}

func TestLoadConfigFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"endpoint: http://gateway:8000",
		"prompts_file: prompts.txt",
		"concurrency:",
		"  - 16",
		"  - 1",
		"timeout: 15s",
		"rate: 20",
		"arrival:",
		"  model: poisson",
		"seed: 42",
		"tracing:",
		"  endpoint: collector:4318",
		"  protocol: http",
		"  insecure: true",
		"metrics:",
		"  push_url: http://pushgateway:9091",
		"  job: nightly",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	loader := config.NewLoader()
	cfg, err := loader.Load([]string{"--config", path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Endpoint != "http://gateway:8000" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.PromptsFile != "prompts.txt" {
		t.Errorf("PromptsFile = %q", cfg.PromptsFile)
	}
	if !reflect.DeepEqual(cfg.Concurrency, []int{16, 1}) {
		t.Errorf("Concurrency = %v, want [16 1]", cfg.Concurrency)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %s, want 15s", cfg.Timeout)
	}
	if cfg.Rate != 20 {
		t.Errorf("Rate = %d, want 20", cfg.Rate)
	}
	if cfg.Arrival.Model != config.ArrivalModelPoisson {
		t.Errorf("Arrival.Model = %q, want poisson", cfg.Arrival.Model)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
	if cfg.Tracing.Endpoint != "collector:4318" || cfg.Tracing.Protocol != config.TracingProtocolHTTP || !cfg.Tracing.Insecure {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Metrics.PushURL != "http://pushgateway:9091" || cfg.Metrics.Job != "nightly" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
}

func TestConfigValidationErrors(t *testing.T) {
	valid := func() config.Config {
		cfg := *config.Defaults()
		cfg.Endpoint = "http://localhost:8000"
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "missing endpoint",
			mutate: func(c *config.Config) { c.Endpoint = "" },
			want:   []string{"endpoint is required"},
		},
		{
			name:   "endpoint without scheme",
			mutate: func(c *config.Config) { c.Endpoint = "localhost:8000" },
			want:   []string{"http://"},
		},
		{
			name:   "non-positive level",
			mutate: func(c *config.Config) { c.Concurrency = []int{1, 0, -2} },
			want:   []string{"concurrency[1]", "concurrency[2]"},
		},
		{
			name:   "no levels",
			mutate: func(c *config.Config) { c.Concurrency = nil },
			want:   []string{"at least one concurrency level"},
		},
		{
			name: "negative values",
			mutate: func(c *config.Config) {
				c.Requests = -1
				c.Timeout = -1
				c.Rate = -5
				c.MaxTokens = -1
			},
			want: []string{"requests", "timeout", "rate", "max_tokens"},
		},
		{
			name: "output conflict",
			mutate: func(c *config.Config) {
				c.Dashboard = true
				c.JSONOutput = true
			},
			want: []string{"mutually exclusive"},
		},
		{
			name:   "bad arrival",
			mutate: func(c *config.Config) { c.Arrival.Model = "burst" },
			want:   []string{"arrival model"},
		},
		{
			name: "bad tracing",
			mutate: func(c *config.Config) {
				c.Tracing.Endpoint = "localhost:4317"
				c.Tracing.Protocol = "udp"
				c.Tracing.SampleRate = 2
			},
			want: []string{"tracing: protocol", "sample_rate"},
		},
		{
			name:   "bad log format",
			mutate: func(c *config.Config) { c.Log.Format = "xml" },
			want:   []string{"log: format"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			var verr config.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want ValidationError", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestWhitespacePromptIsValid(t *testing.T) {
	cfg := *config.Defaults()
	cfg.Endpoint = "https://example.com"
	cfg.Prompt = "  "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestPromptNotRequiredWithPromptsFile(t *testing.T) {
	cfg := *config.Defaults()
	cfg.Endpoint = "https://example.com"
	cfg.Prompt = ""
	cfg.PromptsFile = "prompts.txt"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
