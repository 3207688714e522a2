package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	utteranceCounter otelmetric.Int64Counter
	utteranceLatency otelmetric.Float64Histogram
	tracer           trace.Tracer
	shutdownTracing  func(context.Context) error
}

func New(serviceName string) *Observability {
	obs := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	utteranceCounter, _ := meter.Int64Counter(
		"utterances.processed",
		otelmetric.WithDescription("Number of utterances processed"),
	)

	utteranceLatency, _ := meter.Float64Histogram(
		"utterances.duration",
		otelmetric.WithDescription("Utterance processing duration"),
		otelmetric.WithUnit("ms"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.utteranceCounter = utteranceCounter
	obs.utteranceLatency = utteranceLatency
	return obs
}

// StartSpan opens a span on the service tracer. The returned context carries it.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("shopping-assistant")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordUtterance(ctx context.Context, intent string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("intent", intent))
	if o.utteranceCounter != nil {
		o.utteranceCounter.Add(ctx, 1, attrs)
	}
	if o.utteranceLatency != nil {
		o.utteranceLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.shutdownTracing != nil {
		_ = o.shutdownTracing(ctx)
	}
}
