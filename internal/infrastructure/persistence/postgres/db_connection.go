// Package postgres provides the relational ledger store of the dataguard engine.
// Production runs on PostgreSQL through a pgx connection pool handed to gorm; single-node
// setups and tests run the same repositories on SQLite.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// DBConnection manages the database handle lifecycle.
// For PostgreSQL it owns the pgx pool underneath gorm.
type DBConnection struct {
	db     *gorm.DB
	pool   *pgxpool.Pool // nil for sqlite
	config *config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection opens the database selected by cfg.Driver and performs an initial health check.
//
// Parameters:
//   - ctx: Context for connection timeout control
//   - cfg: Database configuration including driver, credentials, and pool settings
//   - log: Logger instance for connection lifecycle events
//
// Returns:
//   - *DBConnection: Initialized connection manager
//   - error: Connection establishment error if any
func NewDBConnection(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("database config is required")
	}
	log = log.WithComponent("DBConnection")

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	conn := &DBConnection{config: cfg, logger: log}
	switch cfg.Driver {
	case "sqlite":
		log.Info(ctx, "Opening SQLite database", logger.String("path", cfg.SQLitePath))
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, errors.Storage("open sqlite database", err)
		}
		// SQLite allows a single writer.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		conn.db = db

	case "postgres":
		log.Info(ctx, "Initializing PostgreSQL connection pool",
			logger.String("host", cfg.Host),
			logger.Int("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Int("max_conns", cfg.MaxConns),
			logger.Int("min_conns", cfg.MinConns),
		)
		pool, err := newPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gormCfg)
		if err != nil {
			pool.Close()
			return nil, errors.Storage("open gorm over pgx pool", err)
		}
		conn.db = db
		conn.pool = pool

	default:
		return nil, errors.InvalidArgument(fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := conn.Migrate(ctx); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

func newPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, errors.WrapError(err, constants.ErrCodeInvalidArgument, "invalid database connection string")
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnTimeout)*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, errors.Storage("create database connection pool", err)
	}
	return pool, nil
}

// NewFromGorm wraps an already opened handle. Tests use it with in-memory SQLite.
func NewFromGorm(db *gorm.DB, log logger.Logger) *DBConnection {
	return &DBConnection{
		db:     db,
		config: &config.DatabaseConfig{Driver: db.Dialector.Name()},
		logger: log.WithComponent("DBConnection"),
	}
}

// DB returns the gorm handle for repository implementations.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// Migrate creates or updates the ledger tables.
func (c *DBConnection) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(AllRecords()...); err != nil {
		return errors.Storage("migrate schema", err)
	}
	c.logger.Info(ctx, "Database schema migrated", logger.String("driver", c.config.Driver))
	return nil
}

// Ping verifies database connectivity and responsiveness.
func (c *DBConnection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.Storage("database handle", err)
	}
	start := time.Now()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		c.logger.Error(ctx, "Database ping failed", err)
		return errors.Storage("ping database", err)
	}

	// Warn if latency is high (> 100ms)
	if latency := time.Since(start); latency > 100*time.Millisecond {
		c.logger.Warn(ctx, "High database latency detected", logger.Int64("latency_ms", latency.Milliseconds()))
	}
	return nil
}

// HealthCheck reports connectivity and, for PostgreSQL, pool statistics.
func (c *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	info := map[string]interface{}{
		"status": "healthy",
		"driver": c.config.Driver,
	}
	if c.pool == nil {
		return info, nil
	}

	stats := c.pool.Stat()
	info["total_connections"] = stats.TotalConns()
	info["idle_connections"] = stats.IdleConns()
	info["acquired_connections"] = stats.AcquiredConns()
	info["max_connections"] = c.config.MaxConns
	if stats.IdleConns() == 0 && stats.TotalConns() >= int32(c.config.MaxConns) {
		c.logger.Warn(ctx, "Connection pool exhausted",
			logger.Int("total_conns", int(stats.TotalConns())),
			logger.Int("max_conns", c.config.MaxConns),
		)
		info["warning"] = "connection_pool_near_limit"
	}
	return info, nil
}

// Close releases the handle and the pool.
func (c *DBConnection) Close() {
	if sqlDB, err := c.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
	c.logger.Info(context.Background(), "Database connection closed", logger.String("driver", c.config.Driver))
}

//Personal.AI order the ending
