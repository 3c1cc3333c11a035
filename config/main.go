package config

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/afero"
)

type ApplicationConfig struct {
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	Database        *DatabaseResolver
	Filesystem      afero.Fs
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	AppEnv       string `env:"APP_ENV"`
	Port         string `env:"APP_PORT" envDefault:"8080"`
	DatabaseURL  string `env:"DATABASE_URL"`
	WaitlistFile string `env:"WAITLIST_FILE" envDefault:"data/waitlist.json"`

	RateLimitRequests       int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow         time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	SignupRateLimitRequests int           `env:"SIGNUP_RATE_LIMIT_REQUESTS" envDefault:"30"`
	RequestTimeout          time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxRequestBodyBytes     int64         `env:"MAX_REQUEST_BODY_BYTES" envDefault:"1048576"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGIN" envSeparator:","`
	TrustedProxies     string   `env:"TRUSTED_PROXIES"`
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`
	GinMode            string   `env:"GIN_MODE"`

	Redis   CacheConfig `envPrefix:"REDIS_"`
	Tracing TracingConfig
}

// NewAppConfig reads AppConfig from the process environment.
func NewAppConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.DatabaseURL = sanitizeEnv(cfg.DatabaseURL)

	if cfg.RateLimitRequests <= 0 || cfg.SignupRateLimitRequests <= 0 {
		return nil, fmt.Errorf("rate limit requests must be positive")
	}
	if cfg.RateLimitWindow <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("rate limit window and request timeout must be positive")
	}

	return cfg, nil
}

func (c *AppConfig) IsProduction() bool {
	return IsProductionEnv(c.AppEnv)
}

func (c *AppConfig) RouterConfig() *router.RouterConfig {
	tracingService := ""
	if c.Tracing.Enabled {
		tracingService = c.Tracing.ServiceName
	}

	return &router.RouterConfig{
		RateLimitRequests:   c.RateLimitRequests,
		RateLimitWindow:     c.RateLimitWindow,
		RequestTimeout:      c.RequestTimeout,
		MaxRequestBodyBytes: c.MaxRequestBodyBytes,
		CORSAllowedOrigins:  c.CORSAllowedOrigins,
		TrustedProxies:      c.TrustedProxies,
		MetricsEnabled:      c.MetricsEnabled,
		GinMode:             c.GinMode,
		HSTS:                c.IsProduction(),
		Port:                c.Port,
		TracingServiceName:  tracingService,
	}
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.Database != nil {
		ac.Database.Close()
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

// LoadApplicationConfiguration wires the process-wide collaborators. The
// database is not contacted here; the resolver connects on the first request.
func LoadApplicationConfiguration(logger *log.Logger) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	appConfig, err := NewAppConfig()
	if err != nil {
		return nil, err
	}

	tracingShutdown, err := SetupTracing(context.Background(), logger, appConfig.Tracing)
	if err != nil {
		return nil, err
	}

	cache := appConfig.Redis.NewCacheOrNil(logger)

	resolver := NewDatabaseResolver(logger, appConfig.DatabaseURL, &DBConfig{Production: appConfig.IsProduction()})
	if resolver.State() == DatabaseNotConfigured {
		logger.Info("DATABASE_URL not set; waitlist will use file storage", "path", appConfig.WaitlistFile)
	}

	routerService := router.CreateRouterService(logger, cache, appConfig.RouterConfig())

	logger.Info("Application configuration loaded successfully")

	return &ApplicationConfig{
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		Database:        resolver,
		Filesystem:      afero.NewOsFs(),
		TracingShutdown: tracingShutdown,
	}, nil
}
