package domain

import (
	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain/monitoring"
	"github.com/akeren/waitlist-api/domain/waitlist"
	"github.com/akeren/waitlist-api/pkg/factory"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	rateLimiters := factory.NewDefaultRateLimiterFactory(appConfig.Cache, appConfig.Logger)

	waitlistFactory := waitlist.NewWaitlistServiceFactory(appConfig.Database, appConfig.Logger, waitlist.FactoryConfig{
		Filesystem:              appConfig.Filesystem,
		WaitlistFile:            appConfig.Config.WaitlistFile,
		SignupRateLimitRequests: appConfig.Config.SignupRateLimitRequests,
		RateLimiters:            rateLimiters,
		MetricsRegisterer:       appConfig.RouterService.MetricsRegisterer(),
	})

	monitoringFactory := monitoring.NewMonitoringControllerFactory(
		appConfig.Database,
		waitlistFactory.FileStore(),
		appConfig.Cache,
		appConfig.Logger,
		rateLimiters,
	)

	appConfig.RouterService.MountController(monitoringFactory.CreateController())
	appConfig.RouterService.MountController(waitlistFactory.CreateController())
}
