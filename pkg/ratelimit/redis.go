package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"
)

const DefaultKeyPrefix = "ratelimit:"

// slidingWindow trims the sorted set to the window, then records the request
// only when the caller is still under the limit. Returns 1 when limited.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now_ms - window_ms)
if redis.call('ZCARD', key) >= limit then
	return 1
end
redis.call('ZADD', key, now_ms, ARGV[4])
redis.call('PEXPIRE', key, window_ms)
return 0
`)

// RedisRateLimiter shares a sliding window log across every instance that
// talks to the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
	now       func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, keyPrefix string, logger Logger) *RedisRateLimiter {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (l *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return l.requests, l.window
}

func (l *RedisRateLimiter) key(key string) string {
	if strings.HasPrefix(key, l.keyPrefix) {
		return key
	}
	return l.keyPrefix + key
}

func (l *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	full := l.key(key)
	now := l.now()

	limited, err := slidingWindow.Run(ctx, l.client, []string{full},
		now.UnixMilli(),
		l.window.Milliseconds(),
		l.requests,
		ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
	).Int()
	if err != nil {
		if l.logger != nil {
			l.logger.Error("Redis rate limit check failed", "key", full, "error", err)
		}
		return false, fmt.Errorf("ratelimit: redis: %w", err)
	}
	return limited == 1, nil
}

// Close is a no-op; the client belongs to the application cache.
func (l *RedisRateLimiter) Close() error {
	return nil
}
