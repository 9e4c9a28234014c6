package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/gym-targets/internal/config"
)

// Redis holds the client events are published through. It is a cluster
// client when more than one address is configured.
type Redis struct {
	Client redis.UniversalClient
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// event publishing degrades while the workflow endpoints keep serving.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewUniversalClient(universalOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Strings("addrs", cfg.Addrs), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.Strings("addrs", cfg.Addrs))
	}
	return &Redis{Client: client}
}

func universalOptions(cfg config.RedisConfig) *redis.UniversalOptions {
	return &redis.UniversalOptions{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
