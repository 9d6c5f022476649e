package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"databreaker/internal/broker/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanScan, tracer.String("k", "v"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Int("n", 1))
	span.AddEvent("evt")
	span.End(errors.New("ignored"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanConnectorCall,
		tracer.String(tracer.AttrConnectorID, "dummy-broker"),
		tracer.Bool("flag", true),
		tracer.Int64("count", 3),
	)
	require.NotNil(t, span)
	assert.NotPanics(t, func() {
		span.AddEvent("record.upserted", tracer.Int(tracer.AttrRecords, 2))
		span.End(errors.New("connector failed"))
	})
}

func TestNewOTel_DefaultsToGlobalProvider(t *testing.T) {
	assert.NotNil(t, tracer.NewOTel())
}

func TestHashQuery(t *testing.T) {
	a := tracer.HashQuery("Jane", "Doe")
	assert.Len(t, a, 16)
	assert.Equal(t, a, tracer.HashQuery("jane", "doe"), "case-insensitive")
	assert.NotEqual(t, a, tracer.HashQuery("John", "Doe"))
	assert.Empty(t, tracer.HashQuery("", ""))
}

func TestDurationAttribute(t *testing.T) {
	attr := tracer.Duration("latency", 150*1e6)
	assert.Equal(t, int64(150), attr.Value)
}
