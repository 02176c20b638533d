package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a recording tracer provider for the test
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_TagsSpan(t *testing.T) {
	sr := setupTestTracer(t)
	tenantID := uuid.New()
	userID := uuid.New()

	router := gin.New()
	router.Use(RequestID(), Tracing(DefaultTracingConfig()), TenantMiddleware(DefaultTenantConfig()), TracingAttributes())
	router.GET("/api/v1/contracts/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/"+uuid.NewString(), nil)
	req.Header.Set(HeaderRequestID, "trace-req-1")
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set(HeaderUserID, userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, "GET /api/v1/contracts/:id")
	got, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "trace-req-1", got)
	got, _ = spanAttr(span, "tenant_id")
	assert.Equal(t, tenantID.String(), got)
	got, _ = spanAttr(span, "user_id")
	assert.Equal(t, userID.String(), got)
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracingAttributes_ServerError(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(DefaultTracingConfig()), TracingAttributes())
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	span := findSpan(t, sr, "GET /boom")
	assert.Equal(t, codes.Error, span.Status().Code)
	_, ok := spanAttr(span, "gin.errors")
	assert.True(t, ok)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	span = findSpan(t, sr, "GET /missing")
	_, ok = spanAttr(span, "tenant_id")
	assert.False(t, ok)
}

func TestTracingAttributes_NoSpan(t *testing.T) {
	router := gin.New()
	router.Use(TracingAttributes())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
