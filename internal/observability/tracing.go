package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the engine's single tracer, acquired via otel's global
// provider once NewTracerProvider has run.
var Tracer = otel.Tracer("github.com/gregjan/trellis")

// NewTracerProvider wires an OTLP-over-gRPC exporter into an SDK trace
// provider and installs it as the global provider. Callers that don't want
// tracing can skip calling this; Tracer falls back to otel's no-op
// implementation.
func NewTracerProvider(ctx context.Context, endpoint, serviceName string) (*sdktrace.TracerProvider, error) {
	client := otlptracegrpc.NewClient(otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	Tracer = tp.Tracer(serviceName)
	return tp, nil
}

// StartBackendSpan wraps a backend I/O boundary call (spec.md §5's
// suspension points) in a span named after the operation.
func StartBackendSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return Tracer.Start(ctx, "store."+op)
}
