package telemetry

import (
	"context"
	"net/http"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestManagerEmitsClientSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	instr, err := New(Config{ServiceName: "apidash-test"},
		WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	if err != nil {
		t.Fatalf("new instrumenter: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v1/users", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	ctx, span := instr.Start(context.Background(), RequestStart{
		Name:        "GET /v1/users",
		Category:    "Users",
		HTTPRequest: req,
	})
	span.End(RequestResult{StatusCode: 200})

	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "GET /v1/users" {
		t.Fatalf("span name = %q", got.Name)
	}
	if got.SpanKind != trace.SpanKindClient {
		t.Fatalf("span kind = %v", got.SpanKind)
	}

	attrs := make(map[string]interface{})
	for _, kv := range got.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	if attrs["apidash.category"] != "Users" {
		t.Fatalf("category attribute = %v", attrs["apidash.category"])
	}
	if attrs["http.method"] != "GET" {
		t.Fatalf("method attribute = %v", attrs["http.method"])
	}
}

func TestManagerSkipsSpanWithoutRequest(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	instr, err := New(Config{ServiceName: "apidash-test"},
		WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	if err != nil {
		t.Fatalf("new instrumenter: %v", err)
	}

	ctx, span := instr.Start(context.Background(), RequestStart{Name: "no request"})
	span.End(RequestResult{})
	if err := instr.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if spans := exporter.GetSpans(); len(spans) != 0 {
		t.Fatalf("expected no spans, got %d", len(spans))
	}
}

func TestSpanNameFallbacks(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "https://api.example.com/x", nil)

	if got := spanNameFor(RequestStart{Name: "named"}); got != "named" {
		t.Fatalf("named = %q", got)
	}
	if got := spanNameFor(RequestStart{HTTPRequest: req}); got != "POST api.example.com" {
		t.Fatalf("request fallback = %q", got)
	}
	if got := spanNameFor(RequestStart{}); got != "http.request" {
		t.Fatalf("default = %q", got)
	}
}
