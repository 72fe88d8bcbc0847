// Package otelhelper bootstraps distributed tracing for the service
// binaries.
package otelhelper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys.
const (
	SolicitationIDKey = "tramite.solicitation_id"
	ProtocoloKey      = "tramite.protocolo"
	TypeIDKey         = "tramite.type_id"
	StepKeyKey        = "tramite.step_key"
	DecisionKey       = "tramite.decision"
	EventIDKey        = "tramite.event.id"
)

// InitTracer configures the global OTLP tracer provider for a service and
// returns it so the caller can shut it down on exit.
func InitTracer(ctx context.Context, serviceName string) (*sdktrace.TracerProvider, error) {
	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(r),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}))

	return tp, nil
}

// NewTracer returns a named tracer from the global provider set up by
// InitTracer.
//
// nolint:ireturn // Returning interface is intentional for OpenTelemetry tracing
func NewTracer(serviceName string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(serviceName)
}

// StartSpan opens a span with the given attributes.
//
// nolint:ireturn,spancheck // Returning interface is intentional for OpenTelemetry tracing
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
