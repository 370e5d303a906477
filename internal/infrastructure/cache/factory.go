package cache

import (
	"context"

	"github.com/oficina/backend/internal/application/stock"
	"github.com/oficina/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewAlertThrottle returns a Redis throttle when Redis is configured and reachable,
// otherwise an in-memory one. The returned close function releases the Redis client.
func NewAlertThrottle(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (stock.AlertThrottle, func() error) {
	noop := func() error { return nil }
	if cfg.Host == "" {
		return NewMemoryAlertThrottle(), noop
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory alert throttle. "+
			"Alerts may repeat across worker instances.",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return NewMemoryAlertThrottle(), noop
	}

	throttle := NewRedisAlertThrottle(client, "")
	return throttle, throttle.Close
}
