package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.0).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "ParentBased")
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartServiceSpan(context.Background(), "invoice_line", "create",
		SpanAttrOrderID, "o-1", SpanAttrInvoiceTotal, 113.0, 42, "ignored")
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "invoice_line.create", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Attributes(), 2)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestInvoiceMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewInvoiceMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.LinesCreated.Inc(ctx, AttrTenantID.String("t1"))
	m.LinesDeleted.Add(ctx, 3)
	m.LineTotal.Record(ctx, 113)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]bool{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		names[metric.Name] = true
	}
	assert.True(t, names["invoice_lines_created_total"])
	assert.True(t, names["invoice_lines_deleted_total"])
	assert.True(t, names["invoice_line_total"])
}

func TestMeterProvider_DisabledFallsBackToGlobal(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("x"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewZapOTELCore_DisabledIsNop(t *testing.T) {
	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "svc"})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	core = NewZapOTELCore(ZapBridgeConfig{ServiceName: "svc", LoggerProvider: lp})
	assert.False(t, core.Enabled(zapcore.ErrorLevel))
}

func TestLevelFilterCore(t *testing.T) {
	base := zapcore.NewNopCore()
	f := &levelFilterCore{Core: enabledCore{base}, minLevel: zapcore.WarnLevel}
	assert.False(t, f.Enabled(zapcore.InfoLevel))
	assert.True(t, f.Enabled(zapcore.ErrorLevel))
	_, ok := f.With(nil).(*levelFilterCore)
	assert.True(t, ok)
}

type enabledCore struct{ zapcore.Core }

func (enabledCore) Enabled(zapcore.Level) bool { return true }

func TestDBTracingPlugin(t *testing.T) {
	t.Run("disabled skips registration", func(t *testing.T) {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)
		p := NewDBTracingPlugin(DBTracingConfig{}, zap.NewNop())
		assert.NoError(t, p.RegisterOtelGorm(db))
		assert.Nil(t, db.Callback().Query().Get("otel_slow_query:query"))
	})

	t.Run("enabled records spans with table names", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(provider)
		t.Cleanup(func() { otel.SetTracerProvider(prev) })

		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)
		p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
		require.NoError(t, p.RegisterOtelGorm(db))
		assert.NotNil(t, db.Callback().Query().Get("otel_slow_query:query"))

		type widget struct {
			ID   uint
			Name string
		}
		require.NoError(t, db.AutoMigrate(&widget{}))
		require.NoError(t, db.WithContext(context.Background()).Create(&widget{Name: "a"}).Error)
		assert.NotEmpty(t, recorder.Ended())
	})
}
