package store

import (
	"context"

	"github.com/redis/go-redis/v9"

	"classtrack/internal/config"
)

// Redis wraps the client shared by the queue, rate limiter and health check.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects with the configured timeouts. Marking requests sit on the
// rate-limiter path, so operations stay short instead of queueing behind a
// slow redis.
func NewRedis(cfg config.App) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisOpTimeout,
		WriteTimeout: cfg.RedisOpTimeout,
	})
	return &Redis{Client: client}
}

// Healthy reports redis connectivity for /healthz.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
