package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	attachmentapp "github.com/yunmao/backend/internal/application/attachment"
	appevent "github.com/yunmao/backend/internal/application/event"
	purchaseapp "github.com/yunmao/backend/internal/application/purchase"
	saleapp "github.com/yunmao/backend/internal/application/sale"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/infrastructure/cache"
	"github.com/yunmao/backend/internal/infrastructure/config"
	"github.com/yunmao/backend/internal/infrastructure/event"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"github.com/yunmao/backend/internal/infrastructure/migration"
	"github.com/yunmao/backend/internal/infrastructure/persistence"
	"github.com/yunmao/backend/internal/infrastructure/storage"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"github.com/yunmao/backend/internal/interfaces/http/handler"
	"github.com/yunmao/backend/internal/interfaces/http/middleware"
	"github.com/yunmao/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers come first so the bridged logger can ship logs
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log := telemetry.NewBridgedLogger(
		logger.NewCore(logCfg),
		telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}),
		logger.Options()...,
	)
	defer func() {
		_ = logger.Sync(log)
	}()

	profilerCfg := telemetry.DefaultProfilerConfig()
	profilerCfg.Enabled = cfg.Telemetry.ProfilingEnabled
	profilerCfg.ServerAddress = cfg.Telemetry.ProfilingServerAddress
	profilerCfg.ApplicationName = cfg.Telemetry.ServiceName
	profilerCfg.BasicAuthUser = cfg.Telemetry.ProfilingAuthUser
	profilerCfg.BasicAuthPassword = cfg.Telemetry.ProfilingAuthPassword
	profiler, err := telemetry.NewProfiler(profilerCfg, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		// Spans must be wrapped after the profiler is running
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting invoice backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", tracerProvider.IsEnabled()),
		zap.Bool("profiling", profiler.IsEnabled()),
	)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(log),
		persistence.WithLogLevel(cfg.Log.GormLevel),
		persistence.WithTracing(telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := prepareSchema(db, &cfg.Database, log); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	healthChecks := map[string]handler.Pinger{"database": db}

	// Object storage is only consulted to confirm an attachment's object exists
	var objects attachmentapp.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		objects = s3Storage
		healthChecks["storage"] = s3Storage
		log.Info("Object storage ready", zap.String("bucket", s3Storage.Bucket()))
	} else {
		mem := storage.NewMemoryObjectStorage()
		mem.AcceptAll = true
		objects = mem
		log.Warn("Object storage disabled; attachment objects are not verified")
	}

	var idempotencyStore shared.IdempotencyStore
	if cfg.Idempotency.Enabled {
		idempotencyStore, err = cache.NewIdempotencyStoreFactory(cfg.Redis, cfg.Idempotency, cache.WithLogger(log)).CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			_ = idempotencyStore.Close()
		}()
		if pinger, ok := idempotencyStore.(handler.Pinger); ok {
			healthChecks["redis"] = pinger
		}
	}

	// Event bus: invoice metrics are derived from domain events
	eventBus := event.NewInMemoryEventBus(log)
	invoiceMetrics, err := telemetry.NewInvoiceMetrics(meterProvider.Meter("yunmao/invoice"))
	if err != nil {
		log.Fatal("Failed to create invoice metrics", zap.Error(err))
	}
	var metricsHandler shared.EventHandler = appevent.NewInvoiceMetricsHandler(invoiceMetrics, log)
	if idempotencyStore != nil {
		metricsHandler = event.NewIdempotentHandler(metricsHandler, idempotencyStore, log,
			event.WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: true, TTL: cfg.Idempotency.TTL}))
	}
	eventBus.Subscribe(metricsHandler)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered", zap.Strings("invoice_metrics_events", metricsHandler.EventTypes()))

	// Repositories and services
	contractRepo := persistence.NewGormContractRepository(db.DB)
	orderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	lineRepo := persistence.NewGormInvoiceLineRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)

	contractService := purchaseapp.NewContractService(contractRepo, eventBus, log)
	orderService := saleapp.NewOrderService(orderRepo, lineRepo, eventBus, log)
	lineService := saleapp.NewInvoiceLineService(lineRepo, orderRepo, attachmentRepo, eventBus, log)
	attachmentService := attachmentapp.NewAttachmentService(attachmentRepo, objects, eventBus, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tenantCfg := middleware.DefaultTenantConfig()
	if cfg.HTTP.DefaultTenantID != "" {
		tenantCfg.DefaultTenantID = uuid.MustParse(cfg.HTTP.DefaultTenantID)
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.App.Env == "production"

	engine, err := router.NewEngine(router.EngineConfig{
		Logger:         log,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           corsCfg,
		Security:       securityCfg,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Meter:            meterProvider.Meter("yunmao/http"),
		Tenant:           tenantCfg,
		Profiling:        profiler.IsEnabled(),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.Idempotency.TTL,
	}, router.Handlers{
		Contracts:    handler.NewContractHandler(contractService),
		SalesOrders:  handler.NewSalesOrderHandler(orderService, lineService),
		InvoiceLines: handler.NewInvoiceLineHandler(lineService),
		Attachments:  handler.NewAttachmentHandler(attachmentService, lineService),
		Health:       handler.NewHealthHandler(healthChecks),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// prepareSchema applies the SQL migrations, or GORM auto-migration when
// database.auto_migrate is set (development only).
func prepareSchema(db *persistence.Database, cfg *config.DatabaseConfig, log *zap.Logger) error {
	if cfg.AutoMigrate {
		log.Warn("Using GORM auto-migration; do not enable in production")
		return db.AutoMigrate()
	}
	if cfg.MigrationsPath == "" {
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, cfg.MigrationsPath, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared pool
	return migrator.Up()
}
