// Package redis provides the shared Redis state of the dataguard engine: the alert dedup
// window and the latest model snapshot, so several engine replicas agree on both.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// RedisConnection manages Redis client lifecycle and health monitoring.
type RedisConnection struct {
	config *config.RedisConfig
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection dials Redis and verifies connectivity with a ping.
//
// Parameters:
//   - ctx: Context bounding the initial ping
//   - cfg: Redis address, credentials and pool settings
//   - log: Logger instance
//
// Returns:
//   - *RedisConnection: Connected manager
//   - error: Connection establishment error if any
func NewRedisConnection(ctx context.Context, cfg *config.RedisConfig, log logger.Logger) (*RedisConnection, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, errors.InvalidArgument("redis address is required")
	}
	log = log.WithComponent("RedisConnection")

	opts := &redis.UniversalOptions{
		Addrs:        []string{cfg.Address},
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
	}
	log.Info(ctx, "Connecting to Redis",
		logger.String("address", cfg.Address),
		logger.Int("db", cfg.DB),
		logger.Int("pool_size", cfg.PoolSize),
	)

	rc := &RedisConnection{config: cfg, client: redis.NewUniversalClient(opts), logger: log}
	if err := rc.Ping(ctx); err != nil {
		_ = rc.client.Close()
		return nil, err
	}
	log.Info(ctx, "Redis connection established", logger.String("address", cfg.Address))
	return rc, nil
}

// NewFromClient wraps an existing client. Tests pass a client pointed at miniredis.
func NewFromClient(client redis.UniversalClient, keyPrefix string, log logger.Logger) *RedisConnection {
	return &RedisConnection{
		config: &config.RedisConfig{KeyPrefix: keyPrefix},
		client: client,
		logger: log.WithComponent("RedisConnection"),
	}
}

// Client returns the underlying client.
func (rc *RedisConnection) Client() redis.UniversalClient {
	return rc.client
}

// Key namespaces name under the configured prefix.
func (rc *RedisConnection) Key(name string) string {
	return rc.config.KeyPrefix + name
}

// Ping checks Redis connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := rc.client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err)
		return errors.Storage("ping redis", err)
	}
	if latency := time.Since(start); latency > 100*time.Millisecond {
		rc.logger.Warn(ctx, "High Redis latency detected", logger.Int64("latency_ms", latency.Milliseconds()))
	}
	return nil
}

// HealthCheck reports connectivity and pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := rc.Ping(ctx); err != nil {
		return nil, err
	}
	info := map[string]interface{}{"status": "healthy"}
	if stats := rc.client.PoolStats(); stats != nil {
		info["total_connections"] = stats.TotalConns
		info["idle_connections"] = stats.IdleConns
		info["stale_connections"] = stats.StaleConns
		info["hits"] = stats.Hits
		info["misses"] = stats.Misses
		info["timeouts"] = stats.Timeouts
	}
	return info, nil
}

// Close gracefully closes the client.
func (rc *RedisConnection) Close() error {
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return errors.Storage("close redis", err)
	}
	rc.logger.Info(context.Background(), "Redis connection closed")
	return nil
}

//Personal.AI order the ending
