package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func mountTestController(rs *RouterService, postLimiter ratelimit.RateLimiter) {
	ctrl := NewRESTController("TestController", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(ctx *RequestContext) *ServiceResult {
			return OKResult(gin.H{"ip": ctx.ClientIP()})
		})

		rs.AddPostHandler(c, postLimiter, "echo", func(ctx *RequestContext) *ServiceResult {
			var payload map[string]any
			if err := ctx.ShouldBindJSON(&payload); err != nil {
				return BadRequestResult("bad")
			}
			return CreatedResult(payload)
		})

		rs.AddGetHandler(c, nil, "nil", func(ctx *RequestContext) *ServiceResult {
			return nil
		})
	})

	rs.MountController(ctrl)
}

func newTestRouterService(t *testing.T, mutate func(*RouterConfig)) *RouterService {
	t.Helper()

	cfg := &RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		MetricsEnabled:    true,
	}
	if mutate != nil {
		mutate(cfg)
	}

	return CreateRouterService(log.NewLogger(io.Discard, slog.LevelError), nil, cfg)
}

func serve(rs *RouterService, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestTrustedProxies_DisabledByDefault(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10.0.0.2", decodeBody(t, w)["ip"])
}

func TestTrustedProxies_StarTrustsForwardedFor(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) { c.TrustedProxies = "*" })
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")

	w := serve(rs, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.1.1.1", decodeBody(t, w)["ip"])
}

func TestMaxBodySize_Returns413(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) { c.MaxRequestBodyBytes = 10 })
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(bytes.Repeat([]byte{'a'}, 50)))
	req.Header.Set("Content-Type", "application/json")

	w := serve(rs, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request payload too large", decodeBody(t, w)["error"])
}

func TestNoRoute_ReturnsFlatError(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"error": "Route not found"}, decodeBody(t, w))
}

func TestNoMethod_Returns405(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	w := serve(rs, httptest.NewRequest(http.MethodDelete, "/echo", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decodeBody(t, w)["error"])
}

func TestHandlerOverrideLimiter_Returns429(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, ratelimit.NewInMemoryRateLimiter(1, time.Minute))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":1}`))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	first := serve(rs, newReq())
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := serve(rs, newReq())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, "Too many requests", decodeBody(t, second)["error"])

	// The GET handler keeps the global limiter.
	assert.Equal(t, http.StatusOK, serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil)).Code)
}

func TestNilHandlerResult_Returns500(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/nil", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "An unexpected error occurred")
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")

	w := serve(rs, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) {
		c.CORSAllowedOrigins = []string{" https://landing.example "}
	})
	mountTestController(rs, nil)

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://landing.example")
	w := serve(rs, req)
	assert.Equal(t, "https://landing.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(rs, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHSTS_OnlyOverHTTPS(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) { c.HSTS = true })
	mountTestController(rs, nil)

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = serve(rs, req)
	assert.Equal(t, hstsValue, w.Header().Get("Strict-Transport-Security"))
}

func TestMetrics_MountedAndExposesRegisterer(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)
	require.NotNil(t, rs.MetricsRegisterer())

	serve(rs, httptest.NewRequest(http.MethodGet, "/ip", nil))

	w := serve(rs, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `waitlist_http_requests_total{code="200",method="GET",route="/ip"} 1`)
	assert.Contains(t, w.Body.String(), "waitlist_http_requests_in_flight 0")
}

func TestMetrics_Disabled(t *testing.T) {
	rs := newTestRouterService(t, func(c *RouterConfig) { c.MetricsEnabled = false })
	mountTestController(rs, nil)

	assert.Nil(t, rs.MetricsRegisterer())
	assert.Equal(t, http.StatusNotFound, serve(rs, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestNormalizePath(t *testing.T) {
	versioned := NewVersionedRESTController("W", "api", "/waitlist", nil)
	assert.Equal(t, "/api/waitlist", normalizePath(versioned, ""))
	assert.Equal(t, "/api/waitlist/export", normalizePath(versioned, "/export"))

	root := NewRESTController("M", "/", nil)
	assert.Equal(t, "/", normalizePath(root, ""))
	assert.Equal(t, "/health", normalizePath(root, "health"))
}

func TestParseTrustedProxies(t *testing.T) {
	assert.Nil(t, parseTrustedProxies(""))
	assert.Nil(t, parseTrustedProxies(" , "))
	assert.Equal(t, []string{"0.0.0.0/0", "::/0"}, parseTrustedProxies("*"))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.1"}, parseTrustedProxies("10.0.0.0/8, 192.168.0.1"))
}

func TestRegister_DuplicateRoutePanics(t *testing.T) {
	rs := newTestRouterService(t, nil)
	mountTestController(rs, nil)

	other := NewRESTController("Other", "/", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, nil, "ip", func(*RequestContext) *ServiceResult { return OKResult(nil) })
	})

	assert.PanicsWithValue(t, `route GET /ip is already registered by controller "TestController"`, func() {
		rs.MountController(other)
	})
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(time.Minute))
	assert.Equal(t, 91, retryAfterSeconds(90*time.Second+time.Millisecond))
}

type countingLimiter struct {
	ratelimit.RateLimiter
	closes int
}

func (l *countingLimiter) Close() error {
	l.closes++
	return nil
}

func TestCleanup_ClosesSharedLimiterOnce(t *testing.T) {
	rs := newTestRouterService(t, nil)
	shared := &countingLimiter{RateLimiter: ratelimit.NewInMemoryRateLimiter(5, time.Minute)}

	rs.MountController(NewRESTController("Shared", "/shared", func(rs *RouterService, c *RESTController) {
		rs.AddGetHandler(c, shared, "", func(*RequestContext) *ServiceResult { return OKResult(nil) })
		rs.AddPostHandler(c, shared, "", func(*RequestContext) *ServiceResult { return CreatedResult(nil) })
	}))

	rs.Cleanup()
	assert.Equal(t, 1, shared.closes)
}
