package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain/waitlist"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/migrations"
	"github.com/akeren/waitlist-api/pkg/retry"
	"github.com/akeren/waitlist-api/pkg/utils"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrate(logger, false); err != nil {
			logger.Error("Database migration failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "migrate-status":
		if err := runMigrate(logger, true); err != nil {
			logger.Error("Failed to read migration status", "error", err.Error())
			os.Exit(1)
		}

	case "import-file":
		if err := runImportFile(logger); err != nil {
			logger.Error("File import failed", "error", err.Error())
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

// connect waits for the database with backoff; containers often start the
// CLI before postgres accepts connections.
func connect(ctx context.Context, logger *log.Logger, appConfig *config.AppConfig) (*gorm.DB, error) {
	if appConfig.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	dbCfg := &config.DBConfig{Production: appConfig.IsProduction()}

	var db *gorm.DB
	err := connectBackoff(logger).Execute(ctx, func(ctx context.Context) error {
		var err error
		db, err = config.OpenDatabase(ctx, logger, appConfig.DatabaseURL, dbCfg)
		return err
	})
	return db, err
}

// connectBackoff retries only transient failures; bad credentials or a
// malformed DSN fail on the first attempt.
func connectBackoff(logger *log.Logger) *retry.ExponentialBackoff {
	return retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: 6,
		BaseDelay:   time.Second,
		MaxDelay:    15 * time.Second,
		Multiplier:  2.0,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Database not ready", "attempt", attempt, "retry_in", delay.String(), "error", err.Error())
		},
	})
}

// runMigrate applies pending migrations, or only prints the version when status is set.
func runMigrate(logger *log.Logger, status bool) error {
	appConfig, err := config.NewAppConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := connect(ctx, logger, appConfig)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB instance: %w", err)
	}

	runner, err := migrations.NewRunner(sqlDB, migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if status {
		current, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(current)
	}

	return runner.Up(ctx)
}

func runImportFile(logger *log.Logger) error {
	appConfig, err := config.NewAppConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := connect(ctx, logger, appConfig)
	if err != nil {
		return err
	}
	defer config.CloseDatabase(db, logger)

	file := waitlist.NewFileStore(afero.NewOsFs(), appConfig.WaitlistFile, logger)
	report, err := waitlist.ImportFileEntries(ctx, file, waitlist.NewDatabaseStore(db, nil), logger)
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(report)
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate         Run database migrations and exit")
	fmt.Println("  migrate-status  Print the applied schema version")
	fmt.Println("  import-file     Copy entries from WAITLIST_FILE into the database, skipping known emails")
	fmt.Println("  help            Show this message")
}
