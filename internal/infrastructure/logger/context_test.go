package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestContextValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCallerID(ctx, "user-7")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-7", GetCallerID(ctx))
	assert.Empty(t, GetCallerID(context.Background()))
}

func TestContextLogger_InjectsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithCallerID(ctx, "user-7")
	ctx = WithListingID(ctx, "6f1c2a9e-0000-4000-8000-000000000001")
	ctx = WithPayerAccount(ctx, "0.0.2002")

	L(ctx).With(zap.String("workflow", "rent")).Warn("settlement failed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-7", fields["caller_id"])
	assert.Equal(t, "6f1c2a9e-0000-4000-8000-000000000001", fields["listing_id"])
	assert.Equal(t, "0.0.2002", fields["payer_account"])
	assert.Equal(t, "rent", fields["workflow"])
	assert.NotContains(t, fields, "trace_id")
}

func TestContextLogger_TraceIDs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithLogger(ctx, zap.New(core)).Info("matched")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)
	assert.NotPanics(t, func() {
		cl.Debug("a")
		cl.With(zap.Int("n", 1)).Error("b")
	})
	assert.NotNil(t, cl.Zap())
}
