package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingOptions mirrors the tracing section of the config.
type TracingOptions struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
}

// EnableTracing installs an OTLP/HTTP tracer provider. Disabled tracing keeps the no-op global provider.
func (o *Observability) EnableTracing(ctx context.Context, opts TracingOptions) error {
	if !opts.Enabled {
		return nil
	}

	clientOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			"",
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.Version),
		)),
	)

	otel.SetTracerProvider(tp)
	o.tracer = tp.Tracer(opts.ServiceName)
	o.shutdownTracing = tp.Shutdown
	return nil
}
