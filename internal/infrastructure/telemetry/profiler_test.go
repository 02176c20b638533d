package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddressAndName(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProfilerConfig
		wantErr string
	}{
		{"missing server", ProfilerConfig{Enabled: true, ApplicationName: "yunmao"}, "server address"},
		{"missing name", ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, "application name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProfiler(tt.cfg, zap.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfilerConfig_ProfileTypes(t *testing.T) {
	assert.Empty(t, ProfilerConfig{}.profileTypes())

	types := DefaultProfilerConfig().profileTypes()
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU,
		pyroscope.ProfileAllocObjects, pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects, pyroscope.ProfileInuseSpace,
		pyroscope.ProfileGoroutines,
	}, types)

	all := ProfilerConfig{ProfileMutex: true, ProfileBlock: true}.profileTypes()
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration,
		pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration,
	}, all)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"route":           "/api/v1/invoice-lines/:id",
		"Tenant-ID":       "t-1",
		"order_id":        "0b7e",
		"invoice_line_id": "9c1d",
		"empty":           "",
		"!!!":             "dropped",
		"method":          strings.Repeat("x", MaxLabelValueLength+10),
	})

	assert.Equal(t, []string{
		"method", strings.Repeat("x", MaxLabelValueLength),
		"route", "/api/v1/invoice-lines/:id",
		"tenant_id", "t-1",
	}, pairs)
	assert.Nil(t, sanitizeLabels(nil))
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		ProfilingLabelController: "contracts",
		ProfilingLabelMethod:     "GET",
	}, HTTPRequestLabels("contracts", "", "GET", ""))
}

func TestWithProfilingLabels(t *testing.T) {
	var route, order string
	var seen bool
	WithProfilingLabels(context.Background(), map[string]string{
		ProfilingLabelRoute: "/api/v1/contracts",
		"order_id":          "skip-me",
	}, func(ctx context.Context) {
		route, _ = pprof.Label(ctx, ProfilingLabelRoute)
		order, seen = pprof.Label(ctx, "order_id")
	})
	assert.Equal(t, "/api/v1/contracts", route)
	assert.False(t, seen)
	assert.Empty(t, order)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestTracerProvider_EnableSpanProfiles(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	t.Run("no-op when tracing is disabled", func(t *testing.T) {
		tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
		require.NoError(t, err)
		tp.EnableSpanProfiles()
		assert.False(t, tp.SpanProfilesEnabled())
	})

	t.Run("wraps the global provider once", func(t *testing.T) {
		sdk := sdktrace.NewTracerProvider()
		t.Cleanup(func() { _ = sdk.Shutdown(context.Background()) })
		tp := &TracerProvider{provider: sdk, logger: zap.NewNop(), config: Config{Enabled: true}}

		tp.EnableSpanProfiles()
		require.True(t, tp.SpanProfilesEnabled())
		wrapped := otel.GetTracerProvider()
		assert.NotSame(t, sdk, wrapped)

		tp.EnableSpanProfiles()
		assert.Equal(t, wrapped, otel.GetTracerProvider())
	})
}
