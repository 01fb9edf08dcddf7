package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	otellog "go.opentelemetry.io/otel/log"
)

func TestIsQuietRequestLog(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []any
		want bool
	}{
		{name: "health check", msg: "http_request", args: []any{"http_path", "/healthz"}, want: true},
		{name: "swagger assets", msg: "http_request", args: []any{"http_method", "GET", "http_path", "/docs/index.css"}, want: true},
		{name: "api route", msg: "http_request", args: []any{"http_path", "/v1/leagues"}},
		{name: "prefix only", msg: "http_request", args: []any{"http_path", "/docsearch"}},
		{name: "other event", msg: "qstash publish request", args: []any{"http_path", "/healthz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isQuietRequestLog(tt.msg, tt.args); got != tt.want {
				t.Fatalf("isQuietRequestLog() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"league_id", "lg-ABC123", "attempt", 2, "access_token", "APP_USR-1", "payload"})
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "league_id" || attrs[0].Value.AsString() != "lg-ABC123" {
		t.Fatalf("unexpected league_id attribute: %v", attrs[0])
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %v", attrs[1])
	}
	if attrs[2].Value.AsString() != redactedLogValue {
		t.Fatalf("expected access_token to be redacted, got %q", attrs[2].Value.AsString())
	}
	if attrs[3].Key != "payload" || attrs[3].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute: %v", attrs[3])
	}
}

func TestToOTelLogValue(t *testing.T) {
	type rank int

	if v := toOTelLogValue(rank(3), 0); v.Kind() != otellog.KindInt64 || v.AsInt64() != 3 {
		t.Fatalf("expected named int to map to int64, got %s", v.Kind())
	}
	if v := toOTelLogValue(decimal.RequireFromString("12.50"), 0); v.AsString() != "12.5" {
		t.Fatalf("expected decimal string, got %q", v.AsString())
	}
	if v := toOTelLogValue(errors.New("boom"), 0); v.AsString() != "boom" {
		t.Fatalf("expected error string, got %q", v.AsString())
	}
	if v := toOTelLogValue(1500*time.Millisecond, 0); v.AsString() != "1.5s" {
		t.Fatalf("expected duration string, got %q", v.AsString())
	}

	v := toOTelLogValue(map[string]any{"budget": 11, "token": "x", "locked": true}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 3 || items[0].Key != "budget" || items[2].Key != "token" {
		t.Fatalf("expected sorted map items, got %v", items)
	}
	if items[2].Value.AsString() != redactedLogValue {
		t.Fatalf("expected nested token to be redacted")
	}
}
