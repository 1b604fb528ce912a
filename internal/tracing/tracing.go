// Package tracing provides OpenTelemetry span tracing for the API
// server. It is a correlation aid, not a collector dependency: every
// evidence-producing tool integration runs as a local subprocess with
// no network hop to trace, so only the HTTP surface in internal/apiserver
// carries spans.
package tracing

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = trace.NewNoopTracerProvider().Tracer("qaagent")

// Init wires a tracer provider exporting to endpoint and returns a
// shutdown function. An empty endpoint leaves tracing a no-op: a local
// single-operator run has nowhere to ship spans unless the operator
// points --otel-endpoint at a collector.
func Init(serviceName, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build tracing resource: %w", err)
	}

	var exp sdktrace.SpanExporter
	if isGRPC(endpoint) {
		exp, err = otlptracegrpc.New(context.Background(), otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	} else {
		exp, err = otlptracehttp.New(context.Background(), otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	}
	if err != nil {
		return nil, fmt.Errorf("build otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tracer = provider.Tracer(serviceName)

	return provider.Shutdown, nil
}

// Tracer returns the package-wide tracer, a no-op until Init configures
// a real exporter.
func Tracer() trace.Tracer { return tracer }

// TraceIDFromContext extracts the active span's trace id, empty if none.
func TraceIDFromContext(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

func isGRPC(endpoint string) bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" ||
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL") == "grpc"
}
