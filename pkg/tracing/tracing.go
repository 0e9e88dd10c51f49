package tracing

import (
	"context"
	"fmt"

	"github.com/dataweston/Dinewith/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Init installs a Jaeger-backed tracer provider as the global provider.
// When tracing is disabled the otel no-op provider stays in place and the
// returned shutdown does nothing.
func Init(config utils.TracingConfig, environment string) (func(context.Context) error, error) {
	if !config.Enabled || config.JaegerEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewTracerProvider(config.ServiceName, config.JaegerEndpoint, environment)
	if err != nil {
		return nil, err
	}
	return tp.Shutdown, nil
}

func NewTracerProvider(serviceName, collectorEndpoint, environment string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(collectorEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("initialize jaeger exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(environment),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
