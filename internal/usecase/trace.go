package usecase

import (
	"context"

	"github.com/riskibarqy/bilardeando/internal/platform/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("bilardeando/internal/usecase")

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.StartChild(ctx, usecaseTracer, name)
}
