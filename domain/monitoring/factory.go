package monitoring

import (
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/factory"
)

// Liveness is polled by load balancers; keep it tighter than the global limit.
const monitoringRequestsPerMinute = 10

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	database     DatabaseProbe
	storage      StorageProbe
	cache        Cache
	logger       *log.Logger
	rateLimiters factory.RateLimiterFactory
}

func NewMonitoringControllerFactory(
	database DatabaseProbe,
	storage StorageProbe,
	cache Cache,
	logger *log.Logger,
	rateLimiters factory.RateLimiterFactory,
) MonitoringControllerFactory {
	if rateLimiters == nil {
		rateLimiters = factory.NewDefaultRateLimiterFactory(nil, logger)
	}

	return &DefaultMonitoringControllerFactory{
		database:     database,
		storage:      storage,
		cache:        cache,
		logger:       logger,
		rateLimiters: rateLimiters,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	limiter := f.rateLimiters.CreateRateLimiter("monitoring", monitoringRequestsPerMinute, time.Minute)
	return NewMonitoringController(f.database, f.storage, f.cache, f.logger, limiter)
}
