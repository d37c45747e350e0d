// Package redis provides the Redis-backed cache used for workspaces and
// catalog responses when more than one API instance shares state.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

// CacheRepository implements outbound.CacheRepository on a Redis client.
type CacheRepository struct {
	client  redis.UniversalClient
	prefix  string
	logger  *zap.Logger
	metrics *monitoring.MetricsCollector
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewClient creates a Redis client from configuration and verifies the connection.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("database", cfg.Database))

	return client, nil
}

// NewCacheRepository wraps client. Every key is stored under prefix.
func NewCacheRepository(client redis.UniversalClient, prefix string, logger *zap.Logger, metrics *monitoring.MetricsCollector) *CacheRepository {
	return &CacheRepository{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		metrics: metrics,
	}
}

// Get retrieves a value; a missing key yields outbound.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.metrics.CacheOperation("get", "redis", "miss")
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.metrics.CacheOperation("get", "redis", "error")
		r.logger.Error("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	r.metrics.CacheOperation("get", "redis", "hit")
	return data, nil
}

// Set stores a value with TTL. A non-positive TTL uses the default of one day.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.metrics.CacheOperation("set", "redis", "error")
		r.logger.Error("Redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	r.metrics.CacheOperation("set", "redis", "success")
	return nil
}

// Delete removes a value.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.metrics.CacheOperation("delete", "redis", "error")
		r.logger.Error("Redis DEL failed", zap.String("key", key), zap.Error(err))
		return err
	}
	r.metrics.CacheOperation("delete", "redis", "success")
	return nil
}

// Exists reports whether key is present.
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+key).Result()
	if err != nil {
		r.logger.Error("Redis EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Ping checks connectivity for readiness probes.
func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *CacheRepository) Close() error {
	return r.client.Close()
}
