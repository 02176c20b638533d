package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"github.com/yunmao/backend/internal/interfaces/http/dto"
)

type tenantCapture struct {
	tenant   uuid.UUID
	user     *uuid.UUID
	ctxValue string
}

func tenantRouter(cfg TenantConfig, got *tenantCapture) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), TenantMiddleware(cfg))
	handler := func(c *gin.Context) {
		got.tenant = GetTenantUUID(c)
		got.user = GetUserUUID(c)
		got.ctxValue = logger.GetTenantID(c.Request.Context())
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/contracts", handler)
	router.GET("/health", handler)
	return router
}

func TestTenantMiddleware_Header(t *testing.T) {
	var got tenantCapture
	router := tenantRouter(DefaultTenantConfig(), &got)
	tenantID := uuid.New()
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
	req.Header.Set(HeaderTenantID, tenantID.String())
	req.Header.Set(HeaderUserID, userID.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, got.tenant)
	require.NotNil(t, got.user)
	assert.Equal(t, userID, *got.user)
}

func TestTenantMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		message string
	}{
		{"missing tenant", nil, "Tenant identification required"},
		{"malformed tenant", map[string]string{HeaderTenantID: "acme"}, "Invalid tenant ID format"},
		{"nil tenant", map[string]string{HeaderTenantID: uuid.Nil.String()}, "Invalid tenant ID format"},
		{"malformed user", map[string]string{HeaderTenantID: uuid.NewString(), HeaderUserID: "bob"}, "Invalid user ID format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got tenantCapture
			router := tenantRouter(DefaultTenantConfig(), &got)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Equal(t, uuid.Nil, got.tenant)
		})
	}
}

func TestTenantMiddleware_DefaultTenant(t *testing.T) {
	fallback := uuid.New()
	cfg := DefaultTenantConfig()
	cfg.DefaultTenantID = fallback

	var got tenantCapture
	router := tenantRouter(cfg, &got)

	t.Run("applies default when header absent", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, fallback, got.tenant)
		assert.Equal(t, fallback.String(), got.ctxValue)
		assert.Nil(t, got.user)
	})

	t.Run("header wins over default", func(t *testing.T) {
		explicit := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts", nil)
		req.Header.Set(HeaderTenantID, explicit.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, explicit, got.tenant)
	})
}

func TestTenantMiddleware_SkipPaths(t *testing.T) {
	var got tenantCapture
	router := tenantRouter(DefaultTenantConfig(), &got)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil, got.tenant)
}

func TestGetTenantUUID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetTenantUUID(c))
	assert.Nil(t, GetUserUUID(c))

	c.Set(TenantIDKey, "not-a-uuid-value")
	assert.Equal(t, uuid.Nil, GetTenantUUID(c))
}
