package main

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// otlpConfigured reports whether the standard OTLP endpoint variables are set.
func otlpConfigured(lookup func(string) (string, bool)) bool {
	for _, key := range []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"} {
		if v, ok := lookup(key); ok && v != "" {
			return true
		}
	}
	return false
}

// setupTracing installs an OTLP/HTTP tracer provider when an endpoint is
// configured through the standard OTEL_* variables. Otherwise spans go to the
// global no-op provider.
func setupTracing(ctx context.Context, lookup func(string) (string, bool)) (func(context.Context) error, error) {
	if !otlpConfigured(lookup) {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
