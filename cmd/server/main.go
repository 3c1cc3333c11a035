package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain"
	"github.com/akeren/waitlist-api/internal/log"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 30 * time.Second

func main() {
	logger := log.NewLoggerWithJSONOutput()

	appConfig, err := config.LoadApplicationConfiguration(logger)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	if err := serve(appConfig, logger); err != nil {
		logger.Error("Server stopped with error", "error", err.Error())
		appConfig.Cleanup()
		os.Exit(1)
	}
}

// serve runs the HTTP server until it fails or SIGINT/SIGTERM arrives, then
// drains in-flight requests for up to shutdownGrace.
func serve(appConfig *config.ApplicationConfig, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return appConfig.RouterService.RunHTTPServer()
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down", "grace", shutdownGrace.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("HTTP server drained")
		return nil
	})

	return g.Wait()
}
