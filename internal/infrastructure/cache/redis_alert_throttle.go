package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultAlertKeyPrefix = "oficina:alert:"

// RedisAlertThrottle implements AlertThrottle using Redis,
// so every worker instance shares one view of the alerts already sent
type RedisAlertThrottle struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisAlertThrottle creates a throttle on an existing client
func NewRedisAlertThrottle(client *redis.Client, keyPrefix string) *RedisAlertThrottle {
	if keyPrefix == "" {
		keyPrefix = defaultAlertKeyPrefix
	}
	return &RedisAlertThrottle{client: client, keyPrefix: keyPrefix}
}

// Allow returns true if key was not seen within ttl.
// SETNX with TTL makes check and record one atomic step.
func (t *RedisAlertThrottle) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, t.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record alert key: %w", err)
	}
	return ok, nil
}

// Close closes the Redis client
func (t *RedisAlertThrottle) Close() error {
	return t.client.Close()
}

var _ stock.AlertThrottle = (*RedisAlertThrottle)(nil)
