// Package ratelimit decides whether a caller, identified by an opaque key,
// has used up its request allowance for the current window.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

type RateLimiter interface {
	// GetLimitDetails reports the allowance as requests per window.
	GetLimitDetails() (int, time.Duration)
	// IsLimited consumes one request for key and reports whether it was over the limit.
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis selects the shared limiter; nil keeps state in process.
	Redis *redis.Client
	// KeyPrefix namespaces Redis keys. Defaults to DefaultKeyPrefix.
	KeyPrefix string
	Logger    Logger
}

// NewRateLimiter picks the Redis limiter when a client is configured.
func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.KeyPrefix, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
