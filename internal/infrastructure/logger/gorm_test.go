package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func newObservedGormLogger(zapLevel zapcore.Level, gormLevel gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapLevel)
	return NewGormLogger(zap.New(core), gormLevel, opts...), recorded
}

func logField(entry observer.LoggedEntry, key string) (zapcore.Field, bool) {
	for _, field := range entry.Context {
		if field.Key == key {
			return field, true
		}
	}
	return zapcore.Field{}, false
}

func TestNewGormLogger(t *testing.T) {
	gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 200*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLoggerWithOptions(t *testing.T) {
	gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

	newLogger := gormLog.LogMode(gormlogger.Warn)

	// the original must keep its level
	assert.Equal(t, gormlogger.Info, gormLog.logLevel)

	newGormLog, ok := newLogger.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, newGormLog.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	t.Run("info is formatted and logged", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Info)

		gormLog.Info(context.Background(), "opened connection to %s", "backoffice")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "opened connection to backoffice")
	})

	t.Run("silent suppresses info", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.InfoLevel, gormlogger.Silent)

		gormLog.Info(context.Background(), "should not appear")

		assert.Empty(t, recorded.All())
	})

	t.Run("warn", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn)

		gormLog.Warn(context.Background(), "connection pool at %d", 42)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Contains(t, logs[0].Message, "connection pool at 42")
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("error", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Error(context.Background(), "migration failed")

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

	fc := func() (string, int64) {
		return "SELECT * FROM parties", 0
	}

	gormLog.Trace(context.Background(), time.Now(), fc, errors.New("connection reset"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Error")

	field, ok := logField(logs[0], "sql")
	require.True(t, ok)
	assert.Equal(t, "SELECT * FROM parties", field.String)
}

func TestGormLogger_Trace_RecordNotFound(t *testing.T) {
	fc := func() (string, int64) {
		return "SELECT * FROM documents WHERE id = ?", 0
	}

	t.Run("ignored by default", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error)

		gormLog.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)

		assert.Empty(t, recorded.All())
	})

	t.Run("logged when ignore is disabled", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(zapcore.ErrorLevel, gormlogger.Error,
			WithIgnoreRecordNotFoundError(false))

		gormLog.Trace(context.Background(), time.Now(), fc, gormlogger.ErrRecordNotFound)

		require.Len(t, recorded.All(), 1)
	})
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(zapcore.WarnLevel, gormlogger.Warn,
		WithSlowThreshold(1*time.Nanosecond))

	begin := time.Now().Add(-1 * time.Second)
	fc := func() (string, int64) {
		return "SELECT * FROM journal_entries", 10
	}

	gormLog.Trace(context.Background(), begin, fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SLOW SQL")

	_, ok := logField(logs[0], "threshold")
	assert.True(t, ok, "threshold should be in log fields")
}

func TestGormLogger_Trace_NormalQuery(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	fc := func() (string, int64) {
		return "SELECT * FROM parties", 5
	}

	gormLog.Trace(context.Background(), time.Now(), fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "SQL Query")

	field, ok := logField(logs[0], "rows")
	require.True(t, ok)
	assert.Equal(t, int64(5), field.Integer)
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Silent)

	fc := func() (string, int64) {
		return "SELECT * FROM parties", 5
	}

	gormLog.Trace(context.Background(), time.Now(), fc, nil)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_WithRequestID(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(zapcore.DebugLevel, gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "test-req-id")
	fc := func() (string, int64) {
		return "SELECT * FROM parties", 5
	}

	gormLog.Trace(ctx, time.Now(), fc, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)

	field, ok := logField(logs[0], "request_id")
	require.True(t, ok, "request_id should be in log fields")
	assert.Equal(t, "test-req-id", field.String)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
