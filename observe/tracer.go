package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CallMeta contains metadata about an API call or stream operation for
// telemetry purposes.
type CallMeta struct {
	Component string // Logical component issuing the call (gateway, stream, chat)
	Operation string // Operation name (required), e.g. "fetch", "submit", "heartbeat"
	Resource  string // Logical resource or endpoint path (optional)
	AppID     string // Application id (optional)
	ChatID    string // Chat id (optional)
}

// SpanName returns the deterministic span name for this call.
// Format: chat.call.<component>.<operation> or chat.call.<operation>
func (m CallMeta) SpanName() string {
	if m.Component != "" {
		return "chat.call." + m.Component + "." + m.Operation
	}
	return "chat.call." + m.Operation
}

// CallID returns the fully qualified call identifier.
func (m CallMeta) CallID() string {
	if m.Component != "" {
		return m.Component + "." + m.Operation
	}
	return m.Operation
}

// Tracer wraps OpenTelemetry tracing with call-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an API call.
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with call metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	spanName := meta.SpanName()

	// Build attributes
	attrs := []attribute.KeyValue{
		attribute.String("call.id", meta.CallID()),
		attribute.String("call.operation", meta.Operation),
		attribute.Bool("call.error", false), // Will be updated in EndSpan if error
	}

	if meta.Component != "" {
		attrs = append(attrs, attribute.String("call.component", meta.Component))
	}
	if meta.Resource != "" {
		attrs = append(attrs, attribute.String("call.resource", meta.Resource))
	}
	if meta.AppID != "" {
		attrs = append(attrs, attribute.String("chat.app_id", meta.AppID))
	}
	if meta.ChatID != "" {
		attrs = append(attrs, attribute.String("chat.chat_id", meta.ChatID))
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("call.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
