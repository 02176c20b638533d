package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	startTime time.Time
	checks    map[string]Pinger
	timeout   time.Duration
}

// NewHealthHandler creates a HealthHandler. checks maps a component name
// (e.g. "database") to the dependency that is pinged on each check.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string            `json:"status" example:"healthy"`
	Time       string            `json:"time" example:"2026-01-23T12:00:00Z"`
	Uptime     string            `json:"uptime" example:"1h30m45s"`
	Components map[string]string `json:"components,omitempty"`
}

// Health handles GET /health: health check.
// Pings every registered dependency; 503 when any is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Time:       time.Now().Format(time.RFC3339),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Components: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("component", name), zap.Error(err))
			resp.Components[name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "ok"
	}

	c.JSON(status, resp)
}
