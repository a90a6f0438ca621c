// Package cache holds the Redis read-through layer in front of the user store.
package cache

import (
	"context"
	"log/slog"

	"atrium/config"
	"atrium/internal/domain/lifecycle"
	"atrium/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// RedisParams defines the required parameters
type RedisParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewRedisClient returns nil when redis.enabled is false.
func NewRedisClient(params RedisParams) (*redis.Client, error) {
	cfg := params.Config.Redis
	if cfg == nil || !cfg.Enabled {
		params.Logger.Info("Redis user cache disabled")

		return nil, nil
	}
	if cfg.Addr == "" {
		return nil, errors.New("redis.addr must be provided when redis is enabled")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping Redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return client, nil
}
