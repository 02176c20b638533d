package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
)

// Profiling attaches Pyroscope labels (controller, route pattern, method,
// tenant) to the goroutine serving each API request, so CPU and allocation
// profiles can be sliced per endpoint. Mount it after TenantMiddleware.
// With enabled false the middleware only calls Next.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		var tenant string
		if id := GetTenantUUID(c); id != uuid.Nil {
			tenant = id.String()
		}
		labels := telemetry.HTTPRequestLabels(controllerFromRoute(route), route, c.Request.Method, tenant)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute returns the resource segment of a route pattern:
// "/api/v1/invoice-lines/:id/amounts" gives "invoice-lines".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment matches v1, v2, ...
func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
