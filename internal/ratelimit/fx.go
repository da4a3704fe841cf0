package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/worktugal/worktugal/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(provideRedis),
	fx.Provide(NewTokenBucket),
)

// provideRedis returns nil when no address is configured; the limiter then
// passes all traffic through.
func provideRedis(cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
	})
}
