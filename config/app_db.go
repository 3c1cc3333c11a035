package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	// Production encrypts the connection without verifying the server certificate
	// (sslmode=require); otherwise TLS is disabled. An explicit sslmode in the DSN wins.
	Production bool
}

func (cfg *DBConfig) withDefaults() *DBConfig {
	out := DBConfig{}
	if cfg != nil {
		out = *cfg
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = 5
	}
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 20
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.ConnectTimeout <= 0 {
		out.ConnectTimeout = 10 * time.Second
	}
	return &out
}

func sanitizeEnv(v string) string {
	return utils.SanitizeEnv(v)
}

// applySSLMode sets sslmode on URL and keyword/value DSNs unless already present.
func applySSLMode(dsn string, production bool) (string, error) {
	mode := "disable"
	if production {
		mode = "require"
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", mode)
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if strings.Contains(dsn, "sslmode=") {
		return dsn, nil
	}
	return strings.TrimSpace(dsn) + " sslmode=" + mode, nil
}

// OpenDatabase connects to postgres, verifies the connection and ensures the schema exists.
func OpenDatabase(ctx context.Context, logger *log.Logger, dsn string, cfg *DBConfig) (*gorm.DB, error) {
	cfg = cfg.withDefaults()

	dsn, err := applySSLMode(dsn, cfg.Production)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(ctx, gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

// EnsureSchema creates missing tables and never alters existing ones.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot ensure schema: db is empty")
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, model := range models.ModelRegistry {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}

type DatabaseState int

const (
	DatabaseUnresolved DatabaseState = iota
	DatabaseNotConfigured
	DatabaseConnected
	DatabaseFailed
)

func (s DatabaseState) String() string {
	switch s {
	case DatabaseUnresolved:
		return "unresolved"
	case DatabaseNotConfigured:
		return "not_configured"
	case DatabaseConnected:
		return "connected"
	case DatabaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DatabaseResolution is the cached outcome of the one-time connection attempt.
type DatabaseResolution struct {
	State DatabaseState
	DB    *gorm.DB
	Err   error
}

func (r DatabaseResolution) Connected() bool {
	return r.State == DatabaseConnected && r.DB != nil
}

type ConnectFunc func(ctx context.Context) (*gorm.DB, error)

// DatabaseResolver connects lazily, once per process. A failed attempt is cached
// like a success: later calls never retry.
type DatabaseResolver struct {
	logger  *log.Logger
	connect ConnectFunc
	timeout time.Duration

	mu         sync.Mutex
	resolved   bool
	resolution DatabaseResolution

	// state mirrors resolution.State for readers that must not wait on mu.
	state atomic.Int32
}

func NewDatabaseResolver(logger *log.Logger, dsn string, cfg *DBConfig) *DatabaseResolver {
	dsn = sanitizeEnv(dsn)
	if dsn == "" {
		return NewDatabaseResolverWithConnector(logger, nil)
	}

	cfg = cfg.withDefaults()
	r := NewDatabaseResolverWithConnector(logger, func(ctx context.Context) (*gorm.DB, error) {
		return OpenDatabase(ctx, logger, dsn, cfg)
	})
	r.timeout = cfg.ConnectTimeout
	return r
}

// NewDatabaseResolverWithConnector uses connect for the one-time attempt; a nil
// connect means no database is configured.
func NewDatabaseResolverWithConnector(logger *log.Logger, connect ConnectFunc) *DatabaseResolver {
	r := &DatabaseResolver{
		logger:  logger,
		connect: connect,
		timeout: 10 * time.Second,
	}

	if connect == nil {
		r.resolved = true
		r.resolution = DatabaseResolution{State: DatabaseNotConfigured}
		r.state.Store(int32(DatabaseNotConfigured))
	}

	return r
}

// State reports the current state without triggering a connection attempt or
// waiting for one in progress, which reads as unresolved.
func (r *DatabaseResolver) State() DatabaseState {
	return DatabaseState(r.state.Load())
}

func (r *DatabaseResolver) Resolve(ctx context.Context) DatabaseResolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.resolution
	}

	// The attempt outlives the request that triggered it: its outcome is cached
	// for every later request, so a client disconnect must not decide it.
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	db, err := r.connect(attemptCtx)
	switch {
	case err != nil:
		r.logger.Error("Database connection failed; using file storage for this process", "error", err)
		r.resolution = DatabaseResolution{State: DatabaseFailed, Err: err}
	case db == nil:
		r.logger.Error("Database connector returned no connection; using file storage for this process")
		r.resolution = DatabaseResolution{State: DatabaseFailed, Err: fmt.Errorf("database connector returned nil")}
	default:
		r.logger.Info("Database connected and waitlist table ensured")
		r.resolution = DatabaseResolution{State: DatabaseConnected, DB: db}
	}
	r.resolved = true
	r.state.Store(int32(r.resolution.State))

	return r.resolution
}

func (r *DatabaseResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolution.Connected() {
		CloseDatabase(r.resolution.DB, r.logger)
	}
}
