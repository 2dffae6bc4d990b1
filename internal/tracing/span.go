package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on sweep spans.
const (
	AttrRunID       = attribute.Key("sweepfire.run_id")
	AttrConcurrency = attribute.Key("sweepfire.concurrency")
	AttrRequests    = attribute.Key("sweepfire.requests")
	AttrModel       = attribute.Key("gen_ai.request.model")
	AttrStatusCode  = attribute.Key("http.response.status_code")
	AttrTotalTokens = attribute.Key("gen_ai.usage.total_tokens")
	AttrOutcome     = attribute.Key("sweepfire.outcome")
)

// StartPhaseSpan starts the parent span covering one concurrency level.
func StartPhaseSpan(ctx context.Context, tracer trace.Tracer, runID string, concurrency, requests int) (context.Context, trace.Span) {
	attrs := append(PhaseAttributes(runID, concurrency), AttrRequests.Int(requests))
	return tracer.Start(ctx, fmt.Sprintf("phase c=%d", concurrency),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartCompletionSpan starts a client span for one chat completion call.
// phaseAttrs usually come from PhaseAttributes.
func StartCompletionSpan(ctx context.Context, tracer trace.Tracer, model, target string, phaseAttrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		AttrModel.String(model),
		attribute.String("http.request.method", http.MethodPost),
		attribute.String("url.full", target),
	}, phaseAttrs...)
	return tracer.Start(ctx, "chat "+model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

// PhaseAttributes returns the attributes shared by a phase span and its
// request spans.
func PhaseAttributes(runID string, concurrency int) []attribute.KeyValue {
	return []attribute.KeyValue{AttrRunID.String(runID), AttrConcurrency.Int(concurrency)}
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
