package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tracedParty is a minimal model for exercising traced database operations
type tracedParty struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"size:50"`
	Name      string `gorm:"size:200"`
	CreatedAt time.Time
}

// setupTestDB creates a new in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&tracedParty{})
	require.NoError(t, err)

	return db
}

// setupTracerWithRecorder creates a tracer provider with a span recorder
func setupTracerWithRecorder(t *testing.T) (*trace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	spanRecorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(spanRecorder))
	return tp, spanRecorder
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_RegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	err := plugin.RegisterOtelGorm(db)
	assert.NoError(t, err)

	// Disabled tracing leaves the callback chain untouched
	assert.Nil(t, db.Callback().Query().Get("db_trace:before_query"))
}

func TestDBTracingPlugin_RegisterOtelGorm_Enabled(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	err := plugin.RegisterOtelGorm(db)
	require.NoError(t, err)

	assert.NotNil(t, db.Callback().Query().Get("db_trace:before_query"))
	assert.NotNil(t, db.Callback().Create().Get("db_trace:after_create"))
}

func TestDBTracingPlugin_RegisterOtelGorm_WithFullSQL(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.LogFullSQL = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	err := plugin.RegisterOtelGorm(db)
	assert.NoError(t, err)
}

func TestDBTracingPlugin_RegisterOtelGorm_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	err := plugin.RegisterOtelGorm(db)
	require.NoError(t, err)

	// Registering the same callbacks twice fails
	err = plugin.RegisterOtelGorm(db)
	assert.Error(t, err)
}

func TestDBTracingPlugin_AfterCallback_SpanAttributes(t *testing.T) {
	tp, recorder := setupTracerWithRecorder(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "create_party")
	db.Statement.Context = ctx
	db.Statement.RowsAffected = 1
	db.Statement.Table = "parties"

	plugin.afterCallback(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.Int64("db.rows_affected", 1))
	assert.Contains(t, attrs, attribute.String("db.sql.table", "parties"))
}

func TestDBTracingPlugin_AfterCallback_SlowQueryEvent(t *testing.T) {
	tp, recorder := setupTracerWithRecorder(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.SlowQueryThresh = time.Nanosecond // every query counts as slow
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "list_parties")
	db.Statement.Context = WithQueryStartTime(ctx)
	time.Sleep(time.Millisecond)

	plugin.afterCallback(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	var hasEvent bool
	for _, event := range spans[0].Events() {
		if event.Name == "slow_query_warning" {
			hasEvent = true
		}
	}
	assert.True(t, hasEvent, "expected a slow_query_warning event")
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("db.slow_query", true))
}

func TestDBTracingPlugin_AfterCallback_ErrorMarking(t *testing.T) {
	tp, recorder := setupTracerWithRecorder(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "bad_query")
	db.Statement.Context = ctx
	db.Error = gorm.ErrInvalidTransaction

	plugin.afterCallback(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestDBTracingPlugin_AfterCallback_RecordNotFoundNotAnError(t *testing.T) {
	tp, recorder := setupTracerWithRecorder(t)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	ctx, span := tp.Tracer("test").Start(context.Background(), "missing_party")
	db.Statement.Context = ctx
	db.Error = gorm.ErrRecordNotFound

	plugin.afterCallback(db)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestDBTracingPlugin_BeforeCallback_SetsStartTime(t *testing.T) {
	db := setupTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	db.Statement.Context = context.Background()
	plugin.beforeCallback(db)

	_, ok := db.Statement.Context.Value(queryStartTimeKey).(time.Time)
	assert.True(t, ok)
}

func TestWithQueryStartTime(t *testing.T) {
	ctx := context.Background()
	ctx = WithQueryStartTime(ctx)

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), startTime, time.Second)
}

func BenchmarkDBTracingAfterCallback(b *testing.B) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		b.Fatal(err)
	}

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	db.Statement.Context = WithQueryStartTime(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		plugin.afterCallback(db)
	}
}
