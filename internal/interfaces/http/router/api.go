package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"github.com/yunmao/backend/internal/interfaces/http/handler"
	"github.com/yunmao/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Contracts    *handler.ContractHandler
	SalesOrders  *handler.SalesOrderHandler
	InvoiceLines *handler.InvoiceLineHandler
	Attachments  *handler.AttachmentHandler
	Health       *handler.HealthHandler
}

// EngineConfig configures the middleware chain
type EngineConfig struct {
	Logger         *zap.Logger
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	MaxBodySize    int64
	Tracing        middleware.TracingConfig
	Meter          metric.Meter
	Tenant         middleware.TenantConfig
	// Profiling labels API requests for Pyroscope; set when the profiler runs
	Profiling bool

	IdempotencyStore shared.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewEngine builds the gin engine with the full middleware chain and every
// API route. Health is served outside the versioned group and needs no tenant.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
		middleware.Tracing(cfg.Tracing),
	)

	if h.Health != nil {
		engine.GET("/health", h.Health.Health)
	}

	tenantCfg := cfg.Tenant
	if tenantCfg.Logger == nil {
		tenantCfg.Logger = log
	}
	r := NewRouter(engine,
		WithAPIVersion("v1"),
		WithGroupMiddleware(
			middleware.TenantMiddleware(tenantCfg),
			middleware.TracingAttributes(),
			middleware.HTTPMetrics(cfg.Meter),
			middleware.Profiling(cfg.Profiling),
			middleware.Idempotency(middleware.IdempotencyConfig{
				Store:  cfg.IdempotencyStore,
				TTL:    cfg.IdempotencyTTL,
				Logger: log,
			}),
		),
	)
	r.Register(APIRoutes(h)...)
	r.Setup()

	return engine, nil
}

// APIRoutes returns the resource groups of the v1 API
func APIRoutes(h Handlers) []RouteRegistrar {
	var groups []RouteRegistrar

	if c := h.Contracts; c != nil {
		groups = append(groups, NewDomainGroup("contracts", "/contracts").
			POST("", c.Create).
			GET("", c.List).
			GET("/lookup", c.Lookup).
			GET("/:id", c.GetByID).
			PUT("/:id", c.Update).
			POST("/:id/duplicate", c.Duplicate).
			DELETE("/:id", c.Delete))
	}

	if o := h.SalesOrders; o != nil {
		groups = append(groups, NewDomainGroup("sales-orders", "/sales-orders").
			POST("", o.Create).
			GET("", o.List).
			GET("/:id", o.GetByID).
			DELETE("/:id", o.Delete).
			GET("/:id/invoice-lines", o.ListInvoiceLines).
			GET("/:id/invoice-summary", o.InvoiceSummary))
	}

	if l := h.InvoiceLines; l != nil {
		groups = append(groups, NewDomainGroup("invoice-lines", "/invoice-lines").
			POST("", l.Create).
			GET("", l.List).
			GET("/:id", l.GetByID).
			PUT("/:id", l.Update).
			PATCH("/:id/amounts", l.SetAmounts).
			POST("/:id/recompute", l.RecomputeTotal).
			PUT("/:id/attachments", l.ReplaceAttachments).
			DELETE("/:id/attachments/:attachment_id", l.DetachAttachment).
			DELETE("/:id", l.Delete))
	}

	if a := h.Attachments; a != nil {
		groups = append(groups, NewDomainGroup("attachments", "/attachments").
			POST("", a.Register).
			GET("/:id", a.GetByID).
			GET("/:id/invoice-lines", a.ListInvoiceLines))
	}

	return groups
}
