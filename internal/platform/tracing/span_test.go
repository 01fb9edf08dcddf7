package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestStartChild_NoParent(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")

	ctx, span := StartChild(context.Background(), tracer, "usecase.WalletService.Deposit")
	if span != noopSpan {
		t.Fatalf("expected shared no-op span without a parent")
	}
	if trace.SpanContextFromContext(ctx).IsValid() {
		t.Fatalf("expected ctx to stay untraced")
	}
	Fail(span, errors.New("ignored"))
	span.End()
}

func TestStartChild_WithParent(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	child, _ := StartChild(ctx, tracer, "httpapi.Handler.CreateLeague")
	if got := trace.SpanContextFromContext(child); got.TraceID() != parent.TraceID() {
		t.Fatalf("expected child to keep parent trace id, got %s", got.TraceID())
	}

	same, span := StartChild(ctx, tracer, "")
	if span != noopSpan || same != ctx {
		t.Fatalf("expected empty name to be skipped")
	}
}
