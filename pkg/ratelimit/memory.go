package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	emptyKey    = "__empty__"
	sweepEvery  = time.Minute
	idleWindows = 2
)

// InMemoryRateLimiter keeps one token bucket per key. The bucket holds
// requests tokens and refills at requests/window, so a quiet client may burst.
type InMemoryRateLimiter struct {
	requests int
	window   time.Duration
	every    rate.Limit
	now      func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

func NewInMemoryRateLimiter(requests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests: requests,
		window:   window,
		every:    rate.Limit(float64(requests) / window.Seconds()),
		now:      time.Now,
		buckets:  make(map[string]*bucket),
	}
}

func (l *InMemoryRateLimiter) GetLimitDetails() (int, time.Duration) {
	return l.requests, l.window
}

func (l *InMemoryRateLimiter) IsLimited(_ context.Context, key string) (bool, error) {
	if key == "" {
		key = emptyKey
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(l.every, l.requests)}
		l.buckets[key] = b
	}
	b.seen = now
	l.sweep(now)

	return !b.AllowN(now, 1), nil
}

// sweep drops buckets idle for a couple of windows; a refilled bucket is
// indistinguishable from a fresh one. Callers hold l.mu.
func (l *InMemoryRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now

	cutoff := now.Add(-idleWindows * l.window)
	for key, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *InMemoryRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *InMemoryRateLimiter) Close() error {
	return nil
}
