package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// startRealSpan opens a span from a real SDK tracer so its span context is
// valid, unlike the noop provider's.
func startRealSpan(t *testing.T) (context.Context, trace.Span) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("logger-test").Start(context.Background(), "document.issue")
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestContextPropagation(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	t.Run("logger round-trips through context", func(t *testing.T) {
		ctx := WithContext(context.Background(), logger)
		assert.NotNil(t, FromContext(ctx))
	})

	t.Run("missing logger yields a usable no-op", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.NotPanics(t, func() {
			l.Info("no logger in context")
			l.With(zap.String("key", "value")).Error("still fine")
		})
	})

	t.Run("wrong value type yields a usable no-op", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		l := FromContext(ctx)
		require.NotNil(t, l)
		assert.NotPanics(t, func() { l.Info("test") })
	})

	t.Run("request and user IDs chain", func(t *testing.T) {
		ctx := context.Background()
		ctx, chained := WithRequestID(ctx, logger, "req-1")
		ctx, chained = WithUserID(ctx, chained, "user-1")

		assert.Equal(t, "req-1", GetRequestID(ctx))
		assert.Equal(t, "user-1", GetUserID(ctx))
		assert.NotNil(t, chained)
	})

	t.Run("later request ID wins", func(t *testing.T) {
		ctx, _ := WithRequestID(context.Background(), logger, "first-id")
		ctx, _ = WithRequestID(ctx, logger, "second-id")
		assert.Equal(t, "second-id", GetRequestID(ctx))
	})

	t.Run("absent IDs read as empty", func(t *testing.T) {
		assert.Empty(t, GetRequestID(context.Background()))
		assert.Empty(t, GetUserID(context.Background()))
	})
}

func TestContextKeysAreDistinct(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
	assert.NotEqual(t, RequestIDKey, UserIDKey)
	assert.NotEqual(t, LoggerKey, UserIDKey)
}

func TestTraceCorrelation(t *testing.T) {
	t.Run("real span yields trace and span IDs", func(t *testing.T) {
		ctx, span := startRealSpan(t)
		defer span.End()

		spanCtx := span.SpanContext()
		assert.Equal(t, spanCtx.TraceID().String(), GetTraceID(ctx))
		assert.Equal(t, spanCtx.SpanID().String(), GetSpanID(ctx))
	})

	t.Run("no span yields empty IDs", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
		assert.Empty(t, GetSpanID(context.Background()))
	})

	t.Run("noop span is treated as no trace", func(t *testing.T) {
		tracer := noop.NewTracerProvider().Tracer("test")
		ctx, span := tracer.Start(context.Background(), "journalentry.post")
		defer span.End()

		require.False(t, trace.SpanFromContext(ctx).SpanContext().IsValid())
		assert.Empty(t, GetTraceID(ctx))
		assert.Empty(t, GetSpanID(ctx))

		base := zap.NewNop()
		assert.Equal(t, base, WithTraceContext(ctx, base))
	})

	t.Run("WithTraceContext tags the logger", func(t *testing.T) {
		ctx, span := startRealSpan(t)
		defer span.End()

		base, logs := newObservedLogger()
		WithTraceContext(ctx, base).Info("posted")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	})
}

func TestL(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		cl := L(context.Background())
		require.NotNil(t, cl)
		assert.NotPanics(t, func() { cl.Info("test") })
	})

	t.Run("uses the context's logger", func(t *testing.T) {
		base, logs := newObservedLogger()
		ctx := WithContext(context.Background(), base)

		L(ctx).Info("from context logger")

		assert.Equal(t, 1, logs.Len())
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("injects correlation fields", func(t *testing.T) {
		base, logs := newObservedLogger()

		ctx := context.Background()
		ctx, _ = WithRequestID(ctx, base, "req-123")
		ctx, _ = WithUserID(ctx, base, "user-789")

		WithLogger(ctx, base).Info("party created", zap.String("code", "C-100"))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "req-123", fields["request_id"])
		assert.Equal(t, "user-789", fields["user_id"])
		assert.Equal(t, "C-100", fields["code"])
	})

	t.Run("picks up spans started after construction", func(t *testing.T) {
		base, logs := newObservedLogger()
		ctx, span := startRealSpan(t)
		defer span.End()

		WithLogger(ctx, base).Info("traced entry")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	})

	t.Run("omits empty correlation fields", func(t *testing.T) {
		base, logs := newObservedLogger()

		WithLogger(context.Background(), base).Info("plain entry")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.NotContains(t, fields, "request_id")
		assert.NotContains(t, fields, "user_id")
		assert.NotContains(t, fields, "trace_id")
	})

	t.Run("With accumulates fields", func(t *testing.T) {
		base, logs := newObservedLogger()

		WithLogger(context.Background(), base).
			With(zap.String("field1", "value1")).
			With(zap.String("field2", "value2")).
			Info("chained")

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "value1", fields["field1"])
		assert.Equal(t, "value2", fields["field2"])
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		assert.NotPanics(t, func() {
			cl.Debug("a")
			cl.Info("b")
			cl.Warn("c")
			cl.Error("d")
		})
	})

	t.Run("Zap and Sugar expose the enriched logger", func(t *testing.T) {
		base, logs := newObservedLogger()
		ctx, _ := WithRequestID(context.Background(), base, "req-zap")

		cl := WithLogger(ctx, base)
		cl.Zap().Info("via zap")
		cl.Sugar().Infof("via sugar %d", 1)

		require.Equal(t, 2, logs.Len())
		for _, entry := range logs.All() {
			assert.Equal(t, "req-zap", entry.ContextMap()["request_id"])
		}
	})
}
