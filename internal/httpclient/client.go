package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/torosent/sweepfire/internal/config"
)

// CompletionsPath is appended to the configured endpoint.
const CompletionsPath = "/chat/completions"

// AuthProvider injects credentials into HTTP requests.
type AuthProvider interface {
	InjectHeader(ctx context.Context, req *http.Request) error
	Close() error
}

type RequestBuilder struct {
	target       string
	template     Template
	headers      http.Header
	authProvider AuthProvider
}

// CompletionsURL joins endpoint and the completions path, dropping trailing slashes.
func CompletionsURL(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/") + CompletionsPath
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if strings.ContainsAny(endpoint, "\r\n") {
		return nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	return &RequestBuilder{
		target:   CompletionsURL(endpoint),
		template: NewTemplate(cfg.Model, cfg.Temperature, cfg.MaxTokens),
		headers:  headers,
	}, nil
}

// NewRequestBuilderWithAuth creates a RequestBuilder with an auth provider for automatic credential injection.
func NewRequestBuilderWithAuth(cfg *config.Config, provider AuthProvider) (*RequestBuilder, error) {
	builder, err := NewRequestBuilder(cfg)
	if err != nil {
		return nil, err
	}
	builder.authProvider = provider
	return builder, nil
}

// Target returns the completions URL requests are sent to.
func (b *RequestBuilder) Target() string {
	return b.target
}

// Template returns the shared request fields.
func (b *RequestBuilder) Template() Template {
	return b.template
}

// Build creates a POST request asking for a completion of prompt.
func (b *RequestBuilder) Build(ctx context.Context, prompt string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	body, err := b.template.Body(prompt)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	// bytes.Reader gives the request ContentLength and GetBody.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers))
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	// Inject auth header if provider is present
	if b.authProvider != nil {
		if err := b.authProvider.InjectHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("auth provider inject header: %w", err)
		}
	}

	return req, nil
}

// NewClient returns a client with its own connection pool. maxConnsPerHost
// sizes the idle pool so one phase's workers can all reuse connections.
func NewClient(timeout time.Duration, maxConnsPerHost int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if maxConnsPerHost < 32 {
		maxConnsPerHost = 32
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if maxConnsPerHost > transport.MaxIdleConns {
		transport.MaxIdleConns = maxConnsPerHost
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
