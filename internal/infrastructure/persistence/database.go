// Package persistence implements the domain repositories on GORM.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yunmao/backend/internal/infrastructure/config"
	"github.com/yunmao/backend/internal/infrastructure/logger"
	"github.com/yunmao/backend/internal/infrastructure/persistence/models"
	"github.com/yunmao/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

type dbOptions struct {
	logger   *zap.Logger
	logLevel string
	tracing  telemetry.DBTracingConfig
}

// Option configures NewDatabase and NewSQLiteDatabase
type Option func(*dbOptions)

// WithLogger routes GORM logging through zap
func WithLogger(l *zap.Logger) Option {
	return func(o *dbOptions) { o.logger = l }
}

// WithLogLevel sets the GORM log level (silent, error, warn, info)
func WithLogLevel(level string) Option {
	return func(o *dbOptions) { o.logLevel = level }
}

// WithTracing installs the otelgorm plugin with the given settings
func WithTracing(cfg telemetry.DBTracingConfig) Option {
	return func(o *dbOptions) { o.tracing = cfg }
}

func collect(opts []Option) dbOptions {
	o := dbOptions{
		logger:   zap.NewNop(),
		logLevel: "warn",
		tracing:  telemetry.DefaultDBTracingConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDatabase connects to postgres using the configured pool settings
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := collect(opts)
	db, err := open(postgres.Open(cfg.DSN()), o)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{DB: db}, nil
}

// NewSQLiteDatabase opens a SQLite database, typically ":memory:" in tests.
// Foreign keys are switched on so the order/line cascade behaves as on postgres.
// A single connection keeps an in-memory database alive across queries.
func NewSQLiteDatabase(dsn string, opts ...Option) (*Database, error) {
	o := collect(opts)
	o.tracing.DBSystem = "sqlite"
	db, err := open(sqlite.Open(dsn), o)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Database{DB: db}, nil
}

func open(dialector gorm.Dialector, o dbOptions) (*gorm.DB, error) {
	gormLogger := logger.NewGormLogger(o.logger, logger.MapGormLogLevel(o.logLevel),
		logger.WithIgnoreRecordNotFoundError(true),
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := telemetry.NewDBTracingPlugin(o.tracing, o.logger).RegisterOtelGorm(db); err != nil {
		return nil, fmt.Errorf("failed to register database tracing: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table from the GORM models.
// Production schemas come from migrations/; this is for development and tests.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}

// Stats returns connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}

// Transaction executes fn within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

// WithTenant returns a GORM DB scoped to a tenant.
// Panics on uuid.Nil: an unscoped query here would read across tenants.
func (d *Database) WithTenant(tenantID uuid.UUID) *gorm.DB {
	if tenantID == uuid.Nil {
		panic("WithTenant called with nil tenant ID")
	}
	return d.DB.Where("tenant_id = ?", tenantID)
}
