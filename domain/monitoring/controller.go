package monitoring

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/ratelimit"
)

const (
	livenessMessage = "Waitlist API is running"
	pingTimeout     = 2 * time.Second
)

type Cache interface {
	Ping(ctx context.Context) error
}

// DatabaseProbe reports the database outcome. Resolve is only called once
// State says a connection exists, so health checks never trigger a connect.
type DatabaseProbe interface {
	State() config.DatabaseState
	Resolve(ctx context.Context) config.DatabaseResolution
}

// StorageProbe reports whether the file stage can reach its directory.
type StorageProbe interface {
	Healthy() bool
}

type HealthStatus struct {
	Database      int    `json:"database"` // 1 = connected and answering ping
	DatabaseState string `json:"database_state"`
	Cache         int    `json:"cache"`   // 1 = healthy, 0 = unhealthy/not configured
	Storage       int    `json:"storage"` // 1 = data directory usable
	Uptime        int    `json:"uptime"`  // uptime in seconds
}

type MonitoringController struct {
	database  DatabaseProbe
	storage   StorageProbe
	cache     Cache
	logger    *log.Logger
	startTime time.Time
}

func NewMonitoringController(
	database DatabaseProbe,
	storage StorageProbe,
	cache Cache,
	logger *log.Logger,
	limiter ratelimit.RateLimiter,
) *router.RESTController {
	ctrl := &MonitoringController{
		database:  database,
		storage:   storage,
		cache:     cache,
		logger:    logger,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {
			routerService.AddGetHandler(controller, limiter, "", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.monitor(c)
			})

			routerService.AddGetHandler(controller, nil, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(c)
			})
		},
	)
}

func (ctrl *MonitoringController) monitor(c *router.RequestContext) *router.ServiceResult {
	return router.OKResult(map[string]string{"message": livenessMessage})
}

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	logger.Debug("Health check endpoint called")

	return router.OKResult(ctrl.performHealthChecks(c.Request.Context(), logger))
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ctrl.checkDatabase(ctx, &status, logger)
	ctrl.checkCache(ctx, &status, logger)

	if ctrl.storage != nil && ctrl.storage.Healthy() {
		status.Storage = 1
	} else {
		logger.Warn("Waitlist storage directory is not usable")
	}

	return status
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context, status *HealthStatus, logger *log.Logger) {
	if ctrl.database == nil {
		status.DatabaseState = config.DatabaseNotConfigured.String()
		return
	}

	state := ctrl.database.State()
	status.DatabaseState = state.String()
	if state != config.DatabaseConnected {
		return
	}

	res := ctrl.database.Resolve(ctx)
	sqlDB, err := res.DB.DB()
	if err != nil {
		logger.Error("Database health check failed", "error", err)
		return
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Database health check failed", "error", err)
		return
	}

	status.Database = 1
}

func (ctrl *MonitoringController) checkCache(ctx context.Context, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		return
	}

	if err := ctrl.cache.Ping(ctx); err != nil {
		logger.Error("Cache health check failed", "error", err)
		return
	}

	status.Cache = 1
}
