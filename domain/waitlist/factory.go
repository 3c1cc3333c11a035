package waitlist

import (
	"context"
	"sync"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	"github.com/akeren/waitlist-api/pkg/constants"
	"github.com/akeren/waitlist-api/pkg/factory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

// resolvedStages is [database, file] once the resolver reports a connection and
// [file] otherwise.
type resolvedStages struct {
	resolver DatabaseResolver
	file     *FileStore
	breaker  *circuitbreaker.Config
	logger   *log.Logger

	once     sync.Once
	database *DatabaseStore
}

func NewResolvedStageProvider(resolver DatabaseResolver, file *FileStore, breaker *circuitbreaker.Config, logger *log.Logger) StageProvider {
	return &resolvedStages{resolver: resolver, file: file, breaker: breaker, logger: logger}
}

func (p *resolvedStages) Stages(ctx context.Context) []WaitlistStore {
	res := p.resolver.Resolve(ctx)
	if !res.Connected() {
		return []WaitlistStore{p.file}
	}

	p.once.Do(func() {
		p.database = NewDatabaseStore(res.DB, NewDatabaseCircuitBreaker(p.breaker, p.logger))
	})

	return []WaitlistStore{p.database, p.file}
}

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
	// FileStore is the file stage shared by every service the factory builds.
	FileStore() *FileStore
}

type FactoryConfig struct {
	Filesystem   afero.Fs
	WaitlistFile string
	// SignupRateLimitRequests caps POSTs per client per minute.
	SignupRateLimitRequests int
	// RateLimiters defaults to in-memory limiters.
	RateLimiters factory.RateLimiterFactory
	Breaker      *circuitbreaker.Config
	// MetricsRegisterer is nil when metrics are disabled.
	MetricsRegisterer prometheus.Registerer
}

type DefaultWaitlistServiceFactory struct {
	resolver DatabaseResolver
	logger   *log.Logger
	config   FactoryConfig
	file     *FileStore

	once    sync.Once
	service WaitlistService
}

func NewWaitlistServiceFactory(resolver DatabaseResolver, logger *log.Logger, cfg FactoryConfig) WaitlistServiceFactory {
	if cfg.Filesystem == nil {
		cfg.Filesystem = afero.NewOsFs()
	}
	if cfg.WaitlistFile == "" {
		cfg.WaitlistFile = constants.DefaultWaitlistFile
	}
	if cfg.SignupRateLimitRequests <= 0 {
		cfg.SignupRateLimitRequests = constants.DefaultSignupRateLimitRequests
	}
	if cfg.RateLimiters == nil {
		cfg.RateLimiters = factory.NewDefaultRateLimiterFactory(nil, logger)
	}

	return &DefaultWaitlistServiceFactory{
		resolver: resolver,
		logger:   logger,
		config:   cfg,
		file:     NewFileStore(cfg.Filesystem, cfg.WaitlistFile, logger),
	}
}

func (f *DefaultWaitlistServiceFactory) FileStore() *FileStore {
	return f.file
}

// CreateService builds the service once; metrics collectors can only be
// registered a single time.
func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	f.once.Do(func() {
		stages := NewResolvedStageProvider(f.resolver, f.file, f.config.Breaker, f.logger)
		f.service = NewWaitlistService(f.logger, stages, NewMetrics(f.config.MetricsRegisterer))
	})
	return f.service
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	limiter := f.config.RateLimiters.CreateRateLimiter("signup", f.config.SignupRateLimitRequests, constants.DefaultRateLimitWindow)
	return NewWaitlistController(f.CreateService(), limiter)
}
