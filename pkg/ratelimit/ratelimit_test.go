package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemoryLimiter(requests int, window time.Duration) (*InMemoryRateLimiter, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewInMemoryRateLimiter(requests, window)
	l.now = c.now
	return l, c
}

func consume(t *testing.T, l RateLimiter, key string) bool {
	t.Helper()
	limited, err := l.IsLimited(context.Background(), key)
	require.NoError(t, err)
	return limited
}

func TestInMemoryRateLimiter_PerKey(t *testing.T) {
	l, _ := newTestMemoryLimiter(1, time.Second)

	assert.False(t, consume(t, l, "client-a"))
	assert.True(t, consume(t, l, "client-a"))
	assert.False(t, consume(t, l, "client-b"))
}

func TestInMemoryRateLimiter_BurstThenRefill(t *testing.T) {
	l, c := newTestMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.False(t, consume(t, l, "signup"), "request %d is inside the burst", i+1)
	}
	assert.True(t, consume(t, l, "signup"))

	c.advance(25 * time.Second)
	assert.False(t, consume(t, l, "signup"), "one token refills every window/requests")
	assert.True(t, consume(t, l, "signup"))
}

func TestInMemoryRateLimiter_EmptyKeyIsItsOwnBucket(t *testing.T) {
	l, _ := newTestMemoryLimiter(1, time.Minute)

	assert.False(t, consume(t, l, ""))
	assert.True(t, consume(t, l, ""))
	assert.False(t, consume(t, l, "someone"))
}

func TestInMemoryRateLimiter_SweepsIdleBuckets(t *testing.T) {
	l, c := newTestMemoryLimiter(5, time.Minute)

	consume(t, l, "old")
	c.advance(5 * time.Minute)
	consume(t, l, "new")

	assert.Equal(t, 1, l.size())
}

func TestNewRateLimiter_SelectsBackend(t *testing.T) {
	memory := NewRateLimiter(&RateLimitConfig{Requests: 5, Window: time.Minute})
	assert.IsType(t, &InMemoryRateLimiter{}, memory)

	requests, window := memory.GetLimitDetails()
	assert.Equal(t, 5, requests)
	assert.Equal(t, time.Minute, window)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, &RedisRateLimiter{}, NewRateLimiter(&RateLimitConfig{Requests: 5, Window: time.Minute, Redis: client}))
}

type recordingLogger struct{ msgs []string }

func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.msgs = append(l.msgs, msg) }

func TestRedisRateLimiter_ErrorIsReportedNotLimited(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := &recordingLogger{}
	l := NewRedisRateLimiter(client, 1, time.Minute, "", logger)

	limited, err := l.IsLimited(context.Background(), "10.0.0.1")
	require.Error(t, err)
	assert.False(t, limited)
	assert.Len(t, logger.msgs, 1)
}

func TestRedisRateLimiter_KeyPrefix(t *testing.T) {
	l := NewRedisRateLimiter(nil, 1, time.Minute, "", nil)
	assert.Equal(t, "ratelimit:10.0.0.1", l.key("10.0.0.1"))
	assert.Equal(t, "ratelimit:10.0.0.1", l.key("ratelimit:10.0.0.1"))

	scoped := NewRedisRateLimiter(nil, 1, time.Minute, "ratelimit:waitlist:", nil)
	assert.Equal(t, "ratelimit:waitlist:x", scoped.key("x"))
}
