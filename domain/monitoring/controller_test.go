package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCache struct{ err error }

func (c *fakeCache) Ping(context.Context) error { return c.err }

type fakeStorage bool

func (s fakeStorage) Healthy() bool { return bool(s) }

func quietLogger() *log.Logger {
	return log.NewLogger(io.Discard, slog.LevelError)
}

func newRouter(t *testing.T, database DatabaseProbe, storage StorageProbe, cache Cache) *router.RouterService {
	t.Helper()

	rs := router.CreateRouterService(quietLogger(), nil, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	t.Cleanup(rs.Cleanup)

	rs.MountController(NewMonitoringControllerFactory(database, storage, cache, quietLogger(), nil).CreateController())
	return rs
}

func getHealth(t *testing.T, rs *router.RouterService) HealthStatus {
	t.Helper()

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	return status
}

func TestLiveness(t *testing.T) {
	rs := newRouter(t, nil, fakeStorage(true), nil)

	w := httptest.NewRecorder()
	rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Waitlist API is running"}`, w.Body.String())
}

func TestLiveness_IsRateLimited(t *testing.T) {
	rs := newRouter(t, nil, fakeStorage(true), nil)

	var last int
	for i := 0; i <= monitoringRequestsPerMinute; i++ {
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestHealth_NotConfigured(t *testing.T) {
	resolver := config.NewDatabaseResolverWithConnector(quietLogger(), nil)

	status := getHealth(t, newRouter(t, resolver, fakeStorage(true), nil))

	assert.Equal(t, 0, status.Database)
	assert.Equal(t, "not_configured", status.DatabaseState)
	assert.Equal(t, 0, status.Cache)
	assert.Equal(t, 1, status.Storage)
}

func TestHealth_DoesNotForceResolution(t *testing.T) {
	calls := 0
	resolver := config.NewDatabaseResolverWithConnector(quietLogger(), func(context.Context) (*gorm.DB, error) {
		calls++
		return nil, errors.New("refused")
	})

	status := getHealth(t, newRouter(t, resolver, fakeStorage(false), &fakeCache{err: errors.New("down")}))

	assert.Equal(t, 0, calls)
	assert.Equal(t, "unresolved", status.DatabaseState)
	assert.Equal(t, 0, status.Cache)
	assert.Equal(t, 0, status.Storage)
}

func TestHealth_ConnectedDatabaseAndCache(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	resolver := config.NewDatabaseResolverWithConnector(quietLogger(), func(context.Context) (*gorm.DB, error) {
		return db, nil
	})
	require.True(t, resolver.Resolve(context.Background()).Connected())

	status := getHealth(t, newRouter(t, resolver, fakeStorage(true), &fakeCache{}))

	assert.Equal(t, 1, status.Database)
	assert.Equal(t, "connected", status.DatabaseState)
	assert.Equal(t, 1, status.Cache)
	assert.Equal(t, 1, status.Storage)
}
