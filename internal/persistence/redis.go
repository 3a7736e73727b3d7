package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/config"
)

// ErrRedisNotConfigured is returned by a Redis wrapper without a client.
var ErrRedisNotConfigured = errors.New("redis client not configured")

// Redis wraps the go-redis client. A nil Client means Redis is disabled.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis when an address is configured. A failed ping
// is reported through the second return value so callers can fall back.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	if !cfg.Enabled() {
		logger.Info("REDIS_ADDR not provided; using in-memory rate limit storage")
		return &Redis{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return &Redis{}, err
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	return &Redis{Client: client}, nil
}

// Enabled reports whether a live client is attached.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// Acquire takes key for ttl unless another holder still owns it.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !r.Enabled() {
		return true, nil
	}
	return r.Client.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops key so the next Acquire succeeds.
func (r *Redis) Release(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.Client.Del(ctx, key).Err()
}
