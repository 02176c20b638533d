package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(t.Context())
	})
	return mp, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	require.Failf(t, "metric not found", "no metric named %q", name)
	return metricdata.Metrics{}
}

func metricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(TenantMiddleware(DefaultTenantConfig()), HTTPMetrics(mp.Meter("http.server")))
	router.GET("/api/v1/invoice-lines/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/api/v1/invoice-lines", func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})
	return router, reader
}

func TestHTTPMetrics_RequestCounter(t *testing.T) {
	router, reader := metricsRouter(t)
	tenantID := uuid.New()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/invoice-lines/"+uuid.NewString(), nil)
		req.Header.Set(HeaderTenantID, tenantID.String())
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoice-lines", nil)
	req.Header.Set(HeaderTenantID, tenantID.String())
	router.ServeHTTP(httptest.NewRecorder(), req)

	m := collectMetric(t, reader, "http_server_request_total")
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(AttrHTTPRoute)
		class, _ := dp.Attributes.Value(AttrHTTPStatusClass)
		tenant, _ := dp.Attributes.Value(attribute.Key("tenant_id"))
		assert.Equal(t, tenantID.String(), tenant.AsString())
		counts[route.AsString()+" "+class.AsString()] = dp.Value
	}
	assert.Equal(t, int64(3), counts["/api/v1/invoice-lines/:id 2xx"])
	assert.Equal(t, int64(1), counts["/api/v1/invoice-lines 4xx"])
}

func TestHTTPMetrics_DurationAndActive(t *testing.T) {
	router, reader := metricsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoice-lines/"+uuid.NewString(), nil)
	req.Header.Set(HeaderTenantID, uuid.NewString())
	router.ServeHTTP(httptest.NewRecorder(), req)

	hist, ok := collectMetric(t, reader, "http_server_request_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	active, ok := collectMetric(t, reader, "http_server_active_requests").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	mp, reader := setupTestMeter(t)
	router := gin.New()
	router.Use(HTTPMetrics(mp.Meter("http.server")))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere/123", nil))

	sum := collectMetric(t, reader, "http_server_request_total").Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	route, _ := sum.DataPoints[0].Attributes.Value(AttrHTTPRoute)
	assert.Equal(t, "unmatched", route.AsString())
	_, hasTenant := sum.DataPoints[0].Attributes.Value(attribute.Key("tenant_id"))
	assert.False(t, hasTenant)
}

func TestHTTPMetrics_NilMeter(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx", 201: "2xx", 204: "2xx",
		301: "3xx",
		400: "4xx", 404: "4xx", 409: "4xx",
		500: "5xx", 503: "5xx",
		100: "other",
	}
	for status, expected := range tests {
		assert.Equal(t, expected, StatusClass(status), "status %d", status)
	}
}
