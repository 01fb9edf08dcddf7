package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/platform/tracing"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("bilardeando/internal/interfaces/httpapi")

// startSpan opens a handler span under the otelhttp server span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracing.StartChild(ctx, apiTracer, name)
}

// RequestTracing opens the server span for every route except probes.
func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "bilardeando-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "/healthz", "/health", "/livez", "/readyz", "/openapi.yaml":
		return false
	default:
		return !strings.HasPrefix(path, "/docs/")
	}
}

// routeSpanNames renames the server span to the matched mux pattern once
// routing is done, so path parameters don't explode span cardinality. It
// must wrap the mux directly: ServeMux records the pattern on the request it
// receives.
func routeSpanNames(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if r.Pattern == "" {
			return
		}
		span := trace.SpanFromContext(r.Context())
		span.SetName(r.Pattern)
		if _, route, ok := strings.Cut(r.Pattern, " "); ok {
			span.SetAttributes(attribute.String("http.route", route))
		}
	})
}
