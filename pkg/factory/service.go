package factory

import (
	"time"

	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RateLimiterFactory interface {
	// CreateRateLimiter builds a limiter whose Redis keys live under scope.
	CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter
}

// DefaultRateLimiterFactory hands out Redis-backed limiters when the cache
// exposes a client and in-memory limiters otherwise.
type DefaultRateLimiterFactory struct {
	redisClient *redis.Client
	logger      ratelimit.Logger
}

// NewDefaultRateLimiterFactory accepts any cache; only caches implementing
// RedisClientProvider enable distributed limiting.
func NewDefaultRateLimiterFactory(cache any, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	var redisClient *redis.Client
	if provider, ok := cache.(RedisClientProvider); ok {
		redisClient = provider.GetClient()
	}

	return &DefaultRateLimiterFactory{
		redisClient: redisClient,
		logger:      logger,
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests:  requests,
		Window:    window,
		Redis:     f.redisClient,
		KeyPrefix: "ratelimit:" + scope + ":",
		Logger:    f.logger,
	})
}

// UsesRedis reports whether limiters from this factory are shared across instances.
func (f *DefaultRateLimiterFactory) UsesRedis() bool {
	return f.redisClient != nil
}
