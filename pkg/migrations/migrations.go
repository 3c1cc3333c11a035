package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir             = "migrations"
	DefaultMigrationsTable = "waitlist_schema_migrations"
)

var ErrDirtySchema = errors.New("migrations: schema is dirty")

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Logger          Logger
}

// Status is the schema version recorded in the migrations table.
type Status struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	// Pristine is set when no migration has ever run.
	Pristine bool `json:"pristine"`
}

type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

type openFunc func(db *sql.DB, sourceURL, table string) (migrator, error)

func openPostgres(db *sql.DB, sourceURL, table string) (migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return nil, fmt.Errorf("migrations: postgres driver: %w", err)
	}
	return newMigrator(sourceURL, driver)
}

func newMigrator(sourceURL string, driver database.Driver) (migrator, error) {
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: init: %w", err)
	}
	return m, nil
}

// Runner applies the SQL files under Config.Dir to one database.
type Runner struct {
	db   *sql.DB
	cfg  Config
	open openFunc
}

func NewRunner(db *sql.DB, cfg Config) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("migrations: db is nil")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		cfg.Dir = DefaultDir
	}
	if strings.TrimSpace(cfg.MigrationsTable) == "" {
		cfg.MigrationsTable = DefaultMigrationsTable
	}
	return &Runner{db: db, cfg: cfg, open: openPostgres}, nil
}

// sourceURL turns Dir into a file:// URL; ToSlash keeps Windows paths valid.
func (r *Runner) sourceURL() (string, error) {
	abs, err := filepath.Abs(r.cfg.Dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (r *Runner) info(msg string, args ...any) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Info(msg, args...)
	}
}

// withMigrator runs fn against a fresh migrator and closes it afterwards.
// migrate has no context support, so a cancelled ctx closes the migrator to
// interrupt fn and returns ctx.Err().
func withMigrator[T any](ctx context.Context, r *Runner, fn func(migrator) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	src, err := r.sourceURL()
	if err != nil {
		return zero, err
	}

	m, err := r.open(r.db, src, r.cfg.MigrationsTable)
	if err != nil {
		return zero, err
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if err := errors.Join(srcErr, dbErr); err != nil && r.cfg.Logger != nil {
				r.cfg.Logger.Warn("Failed to close migrator", "error", err)
			}
		})
	}
	defer closeMigrator()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(m)
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		closeMigrator()
		return zero, ctx.Err()
	case res := <-done:
		return res.value, res.err
	}
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (r *Runner) Up(ctx context.Context) error {
	r.info("Running SQL migrations", "dir", r.cfg.Dir, "table", r.cfg.MigrationsTable)

	_, err := withMigrator(ctx, r, func(m migrator) (struct{}, error) {
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				r.info("No migrations to apply")
				return struct{}{}, nil
			}
			return struct{}{}, fmt.Errorf("migrations: up: %w", err)
		}

		status, err := readStatus(m)
		if err != nil {
			return struct{}{}, err
		}
		if status.Dirty {
			return struct{}{}, fmt.Errorf("%w at version %d", ErrDirtySchema, status.Version)
		}

		r.info("Migrations applied successfully", "version", status.Version)
		return struct{}{}, nil
	})
	return err
}

// Status reports the recorded version without applying anything.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	return withMigrator(ctx, r, readStatus)
}

func readStatus(m migrator) (Status, error) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return Status{Pristine: true}, nil
	case err != nil:
		return Status{}, fmt.Errorf("migrations: version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}
