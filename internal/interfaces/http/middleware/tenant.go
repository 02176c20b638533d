package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"github.com/yunmao/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys set by TenantMiddleware
const (
	TenantIDKey = "tenant_id"
	UserIDKey   = "user_id"
)

// TenantConfig holds configuration for tenant middleware
type TenantConfig struct {
	// DefaultTenantID is used when the request has no X-Tenant-ID header.
	// uuid.Nil makes the header mandatory.
	DefaultTenantID uuid.UUID
	// SkipPaths don't require a tenant (e.g. health check)
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/api/v1/health"},
	}
}

// TenantMiddleware resolves the tenant from X-Tenant-ID and the acting user
// from X-User-ID. Both must be UUIDs when present.
func TenantMiddleware(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := cfg.DefaultTenantID
		raw := strings.TrimSpace(c.GetHeader(HeaderTenantID))
		if raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil || parsed == uuid.Nil {
				respondBadRequest(c, "Invalid tenant ID format")
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			respondBadRequest(c, "Tenant identification required")
			return
		}

		if rawUser := strings.TrimSpace(c.GetHeader(HeaderUserID)); rawUser != "" {
			userID, err := uuid.Parse(rawUser)
			if err != nil {
				respondBadRequest(c, "Invalid user ID format")
				return
			}
			c.Set(UserIDKey, userID)
		}

		c.Set(TenantIDKey, tenantID)

		// logger.GinMiddleware already tagged header tenants
		if raw == "" {
			ctx := c.Request.Context()
			ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID.String())
			c.Request = c.Request.WithContext(ctx)
			if cfg.Logger != nil {
				cfg.Logger.Debug("Default tenant applied", zap.String("tenant_id", tenantID.String()))
			}
		}

		c.Next()
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, message, GetRequestID(c)))
}

// GetTenantUUID returns the tenant resolved by TenantMiddleware, or uuid.Nil
func GetTenantUUID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetUserUUID returns the acting user from X-User-ID, if one was sent
func GetUserUUID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}
