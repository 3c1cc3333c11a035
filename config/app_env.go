package config

import (
	"os"
	"strings"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/joho/godotenv"
)

func InitializeEnvFile(logger *log.Logger) {
	if os.Getenv("SKIP_DOTENV") == "true" {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env file")
}

// IsProductionEnv reports whether appEnv names a production deployment.
func IsProductionEnv(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}
