package completion

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/sweepfire/internal/httpclient"
	"github.com/torosent/sweepfire/internal/metrics"
	"github.com/torosent/sweepfire/internal/prompts"
	"github.com/torosent/sweepfire/internal/runner"
	"github.com/torosent/sweepfire/internal/tracing"
)

// maxErrorBody caps the response text kept on HTTP failures.
const maxErrorBody = 512

// Recorder receives the outcome of every exchange.
type Recorder interface {
	Record(o metrics.Outcome)
}

// MultiRecorder fans an outcome out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(o metrics.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Record(o)
		}
	}
}

// Issuer performs one chat completion exchange per call. It implements
// runner.Requester.
type Issuer struct {
	client    *http.Client
	builder   *httpclient.RequestBuilder
	picker    *prompts.Picker
	recorder  Recorder
	tracer    trace.Tracer
	spanAttrs []attribute.KeyValue
	propagate bool
	model     string
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithTracer wraps each exchange in a client span carrying attrs. When
// propagate is set the W3C trace context is sent to the target.
func WithTracer(tracer trace.Tracer, propagate bool, attrs ...attribute.KeyValue) Option {
	return func(i *Issuer) {
		i.tracer = tracer
		i.propagate = propagate
		i.spanAttrs = attrs
	}
}

// NewIssuer returns an Issuer sending requests built by builder through
// client. recorder may be nil.
func NewIssuer(client *http.Client, builder *httpclient.RequestBuilder, picker *prompts.Picker, recorder Recorder, opts ...Option) *Issuer {
	i := &Issuer{
		client:   client,
		builder:  builder,
		picker:   picker,
		recorder: recorder,
	}
	if model, ok := builder.Template()["model"].(string); ok {
		i.model = model
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Do issues one request, records its outcome and returns the failure, if any.
func (i *Issuer) Do(ctx context.Context) error {
	o := i.Issue(ctx)
	if i.recorder != nil {
		i.recorder.Record(o)
	}
	if o.Failed() {
		return o.Err
	}
	return nil
}

// Issue performs one exchange and classifies it without recording it.
func (i *Issuer) Issue(ctx context.Context) metrics.Outcome {
	var span trace.Span
	if i.tracer != nil {
		ctx, span = tracing.StartCompletionSpan(ctx, i.tracer, i.model, i.builder.Target(), i.spanAttrs...)
	}

	o := i.exchange(ctx)

	if span != nil {
		tracing.EndSpan(span, o.Err,
			tracing.AttrOutcome.String(o.Class.String()),
			tracing.AttrStatusCode.Int(o.StatusCode),
			tracing.AttrTotalTokens.Int64(o.Tokens),
		)
	}
	return o
}

func (i *Issuer) exchange(ctx context.Context) metrics.Outcome {
	req, err := i.builder.Build(ctx, i.picker.Next())
	if err != nil {
		return transportFailure(KindRequestBuild, err)
	}
	if i.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	start := time.Now()
	resp, err := i.client.Do(req)
	if err != nil {
		return transportFailure(transportKind(err), err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		kind := transportKind(err)
		if kind == KindNetwork {
			kind = KindBodyRead
		}
		return transportFailure(kind, err)
	}
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return metrics.Outcome{
			Class:      metrics.HTTPFailure,
			Latency:    latency,
			HasLatency: true,
			StatusCode: resp.StatusCode,
			Err:        &runner.HTTPError{StatusCode: resp.StatusCode, Body: snippet(body)},
		}
	}
	return metrics.Outcome{
		Class:      metrics.Success,
		Latency:    latency,
		HasLatency: true,
		StatusCode: resp.StatusCode,
		Tokens:     TotalTokens(body),
	}
}

func transportFailure(kind string, err error) metrics.Outcome {
	return metrics.Outcome{
		Class:     metrics.TransportFailure,
		ErrorKind: kind,
		Err:       &TransportError{Kind: kind, Err: err},
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		return text[:maxErrorBody] + "..."
	}
	return text
}
