// Package tracing starts child spans for in-process layers.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var noopSpan = trace.SpanFromContext(context.Background())

// StartChild starts name under the span already in ctx. Without a valid
// parent (untraced routes, CLI runs without an exporter) it returns ctx and
// a no-op span, so helpers never create stray root spans.
func StartChild(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if name == "" || !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noopSpan
	}
	return tracer.Start(ctx, name, opts...)
}

// Fail marks span as errored. nil err is a no-op.
func Fail(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
