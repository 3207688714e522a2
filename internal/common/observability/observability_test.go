package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordAndSpan(t *testing.T) {
	obs := New("shopping-assistant-test")
	defer obs.Shutdown()

	assert.NotPanics(t, func() {
		obs.RecordUtterance(context.Background(), "search", 120*time.Millisecond)
	})

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	obs.tracer = tp.Tracer("test")

	ctx, span := obs.StartSpan(context.Background(), "handleUtterance", attribute.String("sessionId", "s-1"))
	require.NotNil(t, ctx)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "handleUtterance", ended[0].Name())
}

func TestEnableTracing_Disabled(t *testing.T) {
	obs := &Observability{}
	require.NoError(t, obs.EnableTracing(context.Background(), TracingOptions{Enabled: false}))
	assert.Nil(t, obs.shutdownTracing)

	_, span := obs.StartSpan(context.Background(), "noop")
	span.End()
}
