// Package postgres manages the PostgreSQL connection pool and the GORM-backed
// repositories for tenant and audit state.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// DBConnection manages the PostgreSQL connection pool lifecycle. GORM runs
// on top of the same pgx pool through the stdlib bridge, so pool statistics
// cover every query the repositories issue.
type DBConnection struct {
	pool   *pgxpool.Pool
	gdb    *gorm.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection builds the connection pool, verifies connectivity, and
// opens the GORM handle the repositories use.
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, *errors.AppError) {
	if cfg == nil {
		return nil, errors.ErrConfiguration.WithDescription("database configuration is nil")
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.WithComponent("postgres")

	log.Info(ctx, "initializing postgres connection pool",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
		logger.Int("max_conns", cfg.MaxConns),
		logger.Int("min_conns", cfg.MinConns),
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		log.Error(ctx, "invalid postgres connection string", err)
		return nil, errors.ErrConfiguration.WithError(err).WithDescription("invalid postgres connection string")
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		log.Error(ctx, "failed to create postgres connection pool", err)
		return nil, errors.ErrUnavailable.WithError(err).WithDescription("cannot connect to postgres")
	}

	db := &DBConnection{
		pool:   pool,
		config: cfg,
		logger: log,
	}

	if appErr := db.Ping(ctx); appErr != nil {
		pool.Close()
		return nil, appErr
	}

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		pool.Close()
		log.Error(ctx, "failed to open gorm over pgx pool", err)
		return nil, errors.ErrUnavailable.WithError(err).WithDescription("cannot open gorm handle")
	}
	db.gdb = gdb

	log.Info(ctx, "postgres connection pool initialized",
		logger.Int("total_conns", int(pool.Stat().TotalConns())),
		logger.Int("idle_conns", int(pool.Stat().IdleConns())),
	)

	return db, nil
}

// Pool returns the underlying pgx pool.
func (db *DBConnection) Pool() *pgxpool.Pool {
	return db.pool
}

// Gorm returns the ORM handle backed by the pool.
func (db *DBConnection) Gorm() *gorm.DB {
	return db.gdb
}

// Migrate creates or updates the tenant and audit tables.
func (db *DBConnection) Migrate(ctx context.Context) *errors.AppError {
	if err := db.gdb.WithContext(ctx).AutoMigrate(&models.Tenant{}, &models.AuditRecord{}); err != nil {
		db.logger.Error(ctx, "schema migration failed", err)
		return errors.ErrInternal.WithError(err).WithDescription("schema migration failed")
	}
	db.logger.Info(ctx, "schema migration complete")
	return nil
}

// Ping verifies database connectivity and responsiveness.
func (db *DBConnection) Ping(ctx context.Context) *errors.AppError {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	startTime := time.Now()
	if err := db.pool.Ping(pingCtx); err != nil {
		db.logger.Error(ctx, "postgres ping failed", err)
		return errors.ErrUnavailable.WithError(err).WithDescription("postgres unreachable")
	}

	latency := time.Since(startTime)
	db.logger.Debug(ctx, "postgres ping ok", logger.Int64("latency_ms", latency.Milliseconds()))

	if latency > 100*time.Millisecond {
		db.logger.Warn(ctx, "high postgres latency",
			logger.Int64("latency_ms", latency.Milliseconds()),
			logger.Int64("threshold_ms", 100),
		)
	}

	return nil
}

// HealthCheck reports pool statistics alongside a connectivity probe.
func (db *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, *errors.AppError) {
	if appErr := db.Ping(ctx); appErr != nil {
		return nil, appErr
	}

	stats := db.pool.Stat()
	healthInfo := map[string]interface{}{
		"status":               "healthy",
		"total_connections":    stats.TotalConns(),
		"idle_connections":     stats.IdleConns(),
		"acquired_connections": stats.AcquiredConns(),
		"max_connections":      db.config.MaxConns,
		"acquire_count":        stats.AcquireCount(),
		"acquire_duration_ms":  stats.AcquireDuration().Milliseconds(),
		"empty_acquire_count":  stats.EmptyAcquireCount(),
	}

	if stats.IdleConns() == 0 && stats.TotalConns() >= int32(db.config.MaxConns) {
		db.logger.Warn(ctx, "postgres connection pool near limit",
			logger.Int("total_conns", int(stats.TotalConns())),
			logger.Int("max_conns", db.config.MaxConns),
		)
		healthInfo["warning"] = "connection_pool_near_limit"
	}

	return healthInfo, nil
}

// Stats returns a snapshot of pool statistics.
func (db *DBConnection) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

// Close shuts the pool down. Called during application shutdown.
func (db *DBConnection) Close() {
	db.logger.Info(context.Background(), "closing postgres connection pool",
		logger.Int("total_conns", int(db.pool.Stat().TotalConns())),
	)
	db.pool.Close()
}
