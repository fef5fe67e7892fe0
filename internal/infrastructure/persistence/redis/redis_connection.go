// Package redis provides the Redis client lifecycle and the tenant
// configuration cache. Standalone, cluster, and sentinel topologies are
// supported behind a single UniversalClient.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/pkg/errors"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// ConnectionMode defines the Redis deployment topology.
type ConnectionMode string

const (
	// ModeStandalone represents a single Redis instance
	ModeStandalone ConnectionMode = "standalone"
	// ModeCluster represents Redis cluster mode
	ModeCluster ConnectionMode = "cluster"
	// ModeSentinel represents Redis sentinel mode for high availability
	ModeSentinel ConnectionMode = "sentinel"
)

// Client retry defaults, tuned for short quota-path operations.
const (
	maxRetries      = 3
	minRetryBackoff = 8 * time.Millisecond
	maxRetryBackoff = 512 * time.Millisecond
)

// RedisConnection manages the Redis client lifecycle and health monitoring.
type RedisConnection struct {
	config        *config.RedisConfig
	client        redis.UniversalClient
	logger        logger.Logger
	isInitialized bool
}

// NewRedisConnection creates a connection manager. Connect must be called
// before the client is usable.
func NewRedisConnection(cfg *config.RedisConfig, log logger.Logger) *RedisConnection {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &RedisConnection{
		config: cfg,
		logger: log.WithComponent("redis"),
	}
}

// Connect establishes the Redis connection for the configured mode and
// verifies it with a ping.
func (rc *RedisConnection) Connect() *errors.AppError {
	if rc.isInitialized {
		rc.logger.Warn(context.Background(), "redis connection already initialized")
		return nil
	}
	if rc.config == nil {
		return errors.ErrConfiguration.WithDescription("redis configuration is nil")
	}
	if len(rc.config.Addresses) == 0 {
		return errors.ErrConfiguration.WithDescription("redis.addresses is empty")
	}

	var client redis.UniversalClient
	switch ConnectionMode(rc.config.Mode) {
	case ModeStandalone, "":
		client = rc.connectStandalone()
	case ModeCluster:
		client = rc.connectCluster()
	case ModeSentinel:
		if rc.config.MasterName == "" {
			return errors.ErrConfiguration.WithDescription("redis.master_name required for sentinel mode")
		}
		client = rc.connectSentinel()
	default:
		return errors.ErrConfiguration.WithDescription("unsupported redis mode %q", rc.config.Mode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rc.logger.Error(ctx, "redis ping failed", err,
			logger.String("mode", rc.config.Mode),
		)
		_ = client.Close()
		return errors.ErrUnavailable.WithError(err).WithDescription("cannot connect to redis")
	}

	rc.client = client
	rc.isInitialized = true
	rc.logger.Info(ctx, "redis connection established",
		logger.String("mode", rc.config.Mode),
		logger.Int("pool_size", rc.config.PoolSize),
	)

	return nil
}

func (rc *RedisConnection) connectStandalone() redis.UniversalClient {
	rc.logger.Info(context.Background(), "connecting to redis standalone",
		logger.String("addr", rc.config.Addresses[0]),
		logger.Int("db", rc.config.DB),
	)

	return redis.NewClient(&redis.Options{
		Addr:     rc.config.Addresses[0],
		Password: rc.config.Password,
		DB:       rc.config.DB,

		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,

		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,

		MaxRetries:      maxRetries,
		MinRetryBackoff: minRetryBackoff,
		MaxRetryBackoff: maxRetryBackoff,
	})
}

func (rc *RedisConnection) connectCluster() redis.UniversalClient {
	rc.logger.Info(context.Background(), "connecting to redis cluster",
		logger.Any("addrs", rc.config.Addresses),
	)

	return redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:    rc.config.Addresses,
		Password: rc.config.Password,

		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,

		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,

		MaxRetries:      maxRetries,
		MinRetryBackoff: minRetryBackoff,
		MaxRetryBackoff: maxRetryBackoff,
	})
}

func (rc *RedisConnection) connectSentinel() redis.UniversalClient {
	rc.logger.Info(context.Background(), "connecting to redis sentinel",
		logger.String("master", rc.config.MasterName),
		logger.Any("sentinels", rc.config.Addresses),
	)

	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:    rc.config.MasterName,
		SentinelAddrs: rc.config.Addresses,
		Password:      rc.config.Password,
		DB:            rc.config.DB,

		PoolSize:     rc.config.PoolSize,
		MinIdleConns: rc.config.MinIdleConns,

		DialTimeout:  rc.config.DialTimeout,
		ReadTimeout:  rc.config.ReadTimeout,
		WriteTimeout: rc.config.WriteTimeout,

		MaxRetries:      maxRetries,
		MinRetryBackoff: minRetryBackoff,
		MaxRetryBackoff: maxRetryBackoff,
	})
}

// GetClient returns the Redis client, or nil before Connect succeeds.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	if !rc.isInitialized {
		return nil
	}
	return rc.client
}

// Ping checks Redis server connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) *errors.AppError {
	if !rc.isInitialized {
		return errors.ErrUnavailable.WithDescription("redis connection not initialized")
	}
	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.logger.Error(ctx, "redis ping failed", err)
		return errors.ErrUnavailable.WithError(err).WithDescription("redis unreachable")
	}
	return nil
}

// HealthCheck reports connectivity, latency, and pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, *errors.AppError) {
	if !rc.isInitialized {
		return nil, errors.ErrUnavailable.WithDescription("redis connection not initialized")
	}

	health := make(map[string]interface{})

	start := time.Now()
	err := rc.client.Ping(ctx).Err()
	latency := time.Since(start)

	health["connected"] = err == nil
	health["latency_ms"] = latency.Milliseconds()

	if err != nil {
		health["error"] = err.Error()
		return health, errors.ErrUnavailable.WithError(err).WithDescription("redis unreachable")
	}

	stats := rc.client.PoolStats()
	health["pool_hits"] = stats.Hits
	health["pool_misses"] = stats.Misses
	health["pool_timeouts"] = stats.Timeouts
	health["total_conns"] = stats.TotalConns
	health["idle_conns"] = stats.IdleConns
	health["stale_conns"] = stats.StaleConns

	rc.logger.Debug(ctx, "redis health check completed",
		logger.Any("latency_ms", health["latency_ms"]),
		logger.Any("total_conns", health["total_conns"]),
	)

	return health, nil
}

// GetPoolStats returns connection pool statistics, or nil before Connect.
func (rc *RedisConnection) GetPoolStats() *redis.PoolStats {
	if !rc.isInitialized {
		return nil
	}
	return rc.client.PoolStats()
}

// IsConnected reports whether the connection is live.
func (rc *RedisConnection) IsConnected() bool {
	if !rc.isInitialized {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc.client.Ping(ctx).Err() == nil
}

// Close releases the client and its pool. Called during shutdown.
func (rc *RedisConnection) Close() error {
	if !rc.isInitialized {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "failed to close redis connection", err)
		return err
	}
	rc.isInitialized = false
	rc.logger.Info(context.Background(), "redis connection closed")
	return nil
}
