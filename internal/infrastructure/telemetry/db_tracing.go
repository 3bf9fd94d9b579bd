package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dbTracingPluginName = "ledger:db_tracing"
	queryStartKey       = "ledger:query_start"
)

// DBTracingConfig configures DBTracingPlugin.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // record bound variables in spans
	SlowQueryThresh time.Duration // defaults to 200ms
	DBSystem        string        // defaults to "postgresql"
}

// DefaultDBTracingConfig is disabled, with a 200ms slow threshold.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin is a gorm.Plugin. It installs otelgorm and adds callbacks
// that tag each statement span with its table, row count and slowness.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

var _ gorm.Plugin = (*DBTracingPlugin)(nil)

// NewDBTracingPlugin fills unset fields of cfg from DefaultDBTracingConfig.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	defaults := DefaultDBTracingConfig()
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaults.SlowQueryThresh
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = defaults.DBSystem
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

// Name implements gorm.Plugin.
func (p *DBTracingPlugin) Name() string { return dbTracingPluginName }

// Initialize implements gorm.Plugin. A disabled plugin registers nothing.
func (p *DBTracingPlugin) Initialize(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}
	if err := p.registerCallbacks(db); err != nil {
		return fmt.Errorf("register timing callbacks: %w", err)
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

// callbackRegistrar is what gorm's processor Before and After return.
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	around := func(op string, before, after callbackRegistrar) error {
		return errors.Join(
			before.Register("ledger:before_"+op, p.before),
			after.Register("ledger:after_"+op, p.after),
		)
	}

	cb := db.Callback()
	return errors.Join(
		around("create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")),
		around("query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")),
		around("update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")),
		around("delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")),
		around("row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")),
		around("raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")),
	)
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(db.Statement.Context)
	if !span.IsRecording() {
		return
	}

	stmt := db.Statement
	if stmt.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", stmt.Table))
	}
	if stmt.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", stmt.RowsAffected))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, _ := v.(time.Time)
	if elapsed := time.Since(start); !start.IsZero() && elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
