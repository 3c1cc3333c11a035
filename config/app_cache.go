package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	pkgredis "github.com/akeren/waitlist-api/pkg/redis"
)

// Cache is the shared Redis connection. The service only needs it to answer
// health checks; rate limiters reach the client through GetClient.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache: REDIS_HOST is not set")

type CacheConfig struct {
	Host        string        `env:"HOST"`
	Port        string        `env:"PORT" envDefault:"6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

func (cc *CacheConfig) redisConfig() *pkgredis.Config {
	return &pkgredis.Config{
		Host:        cc.Host,
		Port:        cc.Port,
		Password:    cc.Password,
		DB:          cc.DB,
		DialTimeout: cc.DialTimeout,
	}
}

func (cc *CacheConfig) NewCache() (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}
	return pkgredis.NewRedisCache(cc.redisConfig())
}

// NewCacheOrNil returns nil when Redis is not configured or unreachable;
// rate limiting then stays per instance.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	cache, err := cc.NewCache()
	switch {
	case errors.Is(err, ErrCacheNotConfigured):
		logger.Info("Redis not configured; rate limiting stays in-memory")
		return nil
	case err != nil:
		logger.Error("Redis unavailable; rate limiting stays in-memory", "error", err)
		return nil
	}

	logger.Info("Redis connected", "addr", cc.Host+":"+cc.Port, "db", cc.DB)
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}
	logger.Info("Cache connection closed")
}
