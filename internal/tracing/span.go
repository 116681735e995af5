package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartRequestSpan starts a client span for one inference request.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, requestID int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "inference request",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(attribute.Int("llmload.request_id", requestID))
	return ctx, span
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
