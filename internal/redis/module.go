package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/scribelabs/scribe/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("redis",
	fx.Provide(NewClient),
)

// NewClient returns nil when REDIS_ADDR is unset; consumers treat a nil
// client as "cache disabled" and fall through to their backing source.
func NewClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
