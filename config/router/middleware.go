package router

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

const (
	correlationHeader = "X-Correlation-ID"
	hstsValue         = "max-age=31536000; includeSubDomains"

	corsAllowHeaders = "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, " + correlationHeader
	corsAllowMethods = "POST, OPTIONS, GET"
)

// correlate adopts the caller's X-Correlation-ID or mints one, echoes it, and
// stores a logger tagged with it in the request context.
func (routerService *RouterService) correlate() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = log.NewCorrelationID()
		}
		c.Header(correlationHeader, id)

		ctx := log.ContextWithCorrelationID(c.Request.Context(), id)
		ctx = log.ContextWithLogger(ctx, routerService.logger.WithCorrelationID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (routerService *RouterService) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		log.FromContext(c.Request.Context(), routerService.logger).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(began).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeaders() gin.HandlerFunc {
	hsts := routerService.config.HSTS

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		if hsts && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}

// isHTTPS also trusts X-Forwarded-Proto for TLS terminated at a reverse proxy.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

// limitBody rejects declared oversize bodies up front and caps the rest while
// they are read.
func (routerService *RouterService) limitBody() gin.HandlerFunc {
	limit := routerService.config.MaxRequestBodyBytes

	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorBody{Error: "Request payload too large"})
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// cors answers only for configured origins; anything else gets no CORS
// headers and the browser blocks the response.
func (routerService *RouterService) cors() gin.HandlerFunc {
	allowAny := false
	allowed := make(map[string]struct{}, len(routerService.allowedOrigins))
	for _, o := range routerService.allowedOrigins {
		if o == "*" {
			allowAny = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if _, ok := allowed[origin]; !ok && !allowAny {
			routerService.logger.Warn("CORS origin not allowed", "origin", origin, "allowed_origins", routerService.allowedOrigins)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// deadline bounds the request context. It reports a timeout only when the
// handler wrote nothing; the server's write timeout covers the rest.
func (routerService *RouterService) deadline() gin.HandlerFunc {
	timeout := routerService.config.RequestTimeout

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			GetLogger(c).Warn("Request timeout detected", "timeout", timeout.String())
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorBody{Error: "Request timeout"})
		}
	}
}

// limiterFor picks the route's own limiter, else the global one. Unmatched
// paths fall through to NoRoute/NoMethod under the global limiter.
func (routerService *RouterService) limiterFor(c *gin.Context) (ratelimit.RateLimiter, bool) {
	if c.FullPath() == "" {
		return routerService.rateLimiter, true
	}

	r, ok := routerService.lookupRoute(c.Request.Method, c.FullPath())
	if !ok {
		return nil, false
	}
	if r.limiter != nil {
		return r.limiter, true
	}
	return routerService.rateLimiter, true
}

func retryAfterSeconds(window time.Duration) int {
	return max(1, int(math.Ceil(window.Seconds())))
}

// throttle keys limiters by client IP. A limiter backend error lets the
// request through.
func (routerService *RouterService) throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter, ok := routerService.limiterFor(c)
		if !ok {
			routerService.logger.Error("Route has no controller mapping", "path", c.Request.URL.Path, "method", c.Request.Method)
			c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{Error: fmt.Sprintf("No handler is configured for %s", c.Request.URL.Path)})
			return
		}

		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		clientIP := c.ClientIP()
		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}
		if !limited {
			c.Next()
			return
		}

		routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.Request.URL.Path)
		retryAfter := strconv.Itoa(retryAfterSeconds(window))
		c.Header("Retry-After", retryAfter)

		result := TooManyRequestsResult(RateLimitResponse{
			Limit:      limit,
			Window:     window.String(),
			RetryAfter: retryAfter,
		})
		c.AbortWithStatusJSON(result.StatusCode, result.ToJSON())
	}
}
