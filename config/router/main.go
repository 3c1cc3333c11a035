package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/constants"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	DefaultTimeoutDuration     = 30 * time.Second
	DefaultMaxRequestBodyBytes = int64(1 << 20)
	defaultPort                = "8080"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterConfig struct {
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	RequestTimeout      time.Duration
	MaxRequestBodyBytes int64
	CORSAllowedOrigins  []string
	// TrustedProxies is a comma-separated CIDR list; "*" trusts everything.
	TrustedProxies string
	MetricsEnabled bool
	GinMode        string
	HSTS           bool
	Port           string
	// TracingServiceName enables otelgin spans when set.
	TracingServiceName string
}

// withDefaults fills every unset limit so the rest of the package never
// checks for zero values.
func (rc RouterConfig) withDefaults() RouterConfig {
	if rc.RequestTimeout <= 0 {
		rc.RequestTimeout = DefaultTimeoutDuration
	}
	if rc.MaxRequestBodyBytes <= 0 {
		rc.MaxRequestBodyBytes = DefaultMaxRequestBodyBytes
	}
	if rc.Port == "" {
		rc.Port = defaultPort
	}
	if rc.RateLimitRequests <= 0 {
		rc.RateLimitRequests = constants.DefaultRateLimitRequests
	}
	if rc.RateLimitWindow <= 0 {
		rc.RateLimitWindow = constants.DefaultRateLimitWindow
	}
	return rc
}

type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	config          RouterConfig
	allowedOrigins  []string
	rateLimiter     ratelimit.RateLimiter
	metricsRegistry *prometheus.Registry

	routes map[routeKey]*route
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	cfg := routerConfig.withDefaults()

	if cfg.GinMode != "" {
		logger.Info("Setting Gin mode", "mode", cfg.GinMode)
		gin.SetMode(cfg.GinMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	if cfg.TracingServiceName != "" {
		engine.Use(otelgin.Middleware(cfg.TracingServiceName))
		logger.Info("Tracing middleware enabled")
	}

	// Gin trusts every proxy by default, which lets clients spoof ClientIP()
	// through X-Forwarded-For.
	proxies := parseTrustedProxies(cfg.TrustedProxies)
	if err := engine.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if proxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	rs := &RouterService{
		engine:         engine,
		logger:         logger,
		config:         cfg,
		allowedOrigins: normalizeOrigins(cfg.CORSAllowedOrigins),
		routes:         make(map[routeKey]*route),
	}
	rs.rateLimiter = rs.globalLimiter(redisClientOf(cache))

	if cfg.MetricsEnabled {
		rs.mountMetrics()
	} else {
		logger.Info("Metrics disabled (METRICS_ENABLED=false)")
	}

	engine.Use(
		rs.securityHeaders(),
		rs.limitBody(),
		rs.cors(),
		rs.throttle(),
		rs.deadline(),
		rs.correlate(),
		rs.accessLog(),
	)

	engine.NoRoute(func(c *gin.Context) {
		GetLogger(c).Warn("Route not found", "path", c.Request.URL.Path)
		c.JSON(http.StatusNotFound, ErrorBody{Error: "Route not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		GetLogger(c).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusMethodNotAllowed, ErrorBody{Error: "Method not allowed"})
	})

	// gin.Context is not goroutine-safe, so mid-flight time limits live on
	// the server rather than in a goroutine per handler.
	rs.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "port", cfg.Port)
	return rs
}

func redisClientOf(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

// globalLimiter applies to every route without its own limiter. An
// unreachable Redis downgrades it to in-memory.
func (routerService *RouterService) globalLimiter(client *redis.Client) ratelimit.RateLimiter {
	requests, window := routerService.config.RateLimitRequests, routerService.config.RateLimitWindow

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			routerService.logger.Warn("Redis unreachable for rate limiting, using in-memory", "error", err)
			client = nil
		}
	}

	backend := "memory"
	if client != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized", "backend", backend, "requests", requests, "window", window.String())

	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    client,
		Logger:   routerService.logger,
	})
}

func parseTrustedProxies(v string) []string {
	v = strings.TrimSpace(v)
	switch v {
	case "":
		return nil
	case "*":
		return []string{"0.0.0.0/0", "::/0"}
	}

	var proxies []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

// MetricsRegisterer returns the registry behind /metrics, or nil when metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry
}

// Cleanup closes the global limiter and every per-route limiter once, even
// when a limiter is shared between routes.
func (routerService *RouterService) Cleanup() {
	closed := make(map[ratelimit.RateLimiter]bool)
	closeOnce := func(name string, l ratelimit.RateLimiter) {
		if l == nil || closed[l] {
			return
		}
		closed[l] = true
		if err := l.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "route", name, "error", err)
		}
	}

	closeOnce("*", routerService.rateLimiter)
	for key, r := range routerService.routes {
		closeOnce(key.String(), r.limiter)
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
	)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	err := routerService.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		routerService.logger.Error("HTTP server failed", "error", err)
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully")
	return routerService.server.Shutdown(ctx)
}
