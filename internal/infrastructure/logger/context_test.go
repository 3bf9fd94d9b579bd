package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(context.WithValue(context.Background(), loggerKey, "not a logger")))

	base := zap.NewExample()
	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
}

func TestWithActorID(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx, tagged := WithActorID(ctx, FromContext(ctx), "actor-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "actor-1", GetActorID(ctx))
	assert.Same(t, tagged, FromContext(ctx))

	FromContext(ctx).Info("hello")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "actor-1", recorded.All()[0].ContextMap()["actor_id"])
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActorID(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestWithLogger_Correlation(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	tp := trace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "stock_engine.apply")
	defer span.End()

	ctx = ContextWithRequestID(ctx, "req-9")
	ctx = context.WithValue(ctx, actorIDKey, "actor-9")

	WithLogger(ctx, zap.New(core)).With(zap.String("target", "variation:abc")).Warn("Stock adjustment rejected")

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	assert.Equal(t, GetTraceID(ctx), fields["trace_id"])
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "actor-9", fields["actor_id"])
	assert.Equal(t, "variation:abc", fields["target"])
}

func TestWithLogger_Untagged(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithLogger(context.Background(), base))
	assert.NotPanics(t, func() { WithLogger(context.Background(), nil).Info("dropped") })
}

func TestL_UsesContextLogger(t *testing.T) {
	ctxCore, ctxRecorded := observer.New(zapcore.DebugLevel)

	ctx := ContextWithRequestID(WithContext(context.Background(), zap.New(ctxCore)), "req-2")
	L(ctx).Info("catalog")

	require.Equal(t, 1, ctxRecorded.Len())
	assert.Equal(t, "req-2", ctxRecorded.All()[0].ContextMap()["request_id"])
}
