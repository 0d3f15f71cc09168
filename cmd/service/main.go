// Package main runs the quote board HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsamuelsen/classquotes/internal/adapters/http"
	"github.com/jsamuelsen/classquotes/internal/adapters/http/handlers"
	"github.com/jsamuelsen/classquotes/internal/adapters/http/middleware"
	"github.com/jsamuelsen/classquotes/internal/adapters/storage"
	"github.com/jsamuelsen/classquotes/internal/app"
	"github.com/jsamuelsen/classquotes/internal/platform/config"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
	"github.com/jsamuelsen/classquotes/internal/platform/telemetry"
	"github.com/jsamuelsen/classquotes/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.App.Version == "dev" {
		cfg.App.Version = Version
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
	)

	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	store, err := storage.Open(ctx, storage.Config{
		Driver:   cfg.Storage.Driver,
		Path:     cfg.Storage.Path,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	}, logger)
	if err != nil {
		return fmt.Errorf("opening quote store: %w", err)
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing quote store", slog.Any("error", closeErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Store:  store,
		Logger: logger,
	})

	authz, err := middleware.NewAuthorizer(cfg.Auth.AdminRole)
	if err != nil {
		return fmt.Errorf("building authorizer: %w", err)
	}

	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		AppConfig:     &cfg.App,
		AuthConfig:    &cfg.Auth,
		Authorizer:    authz,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime)),
		QuoteHandler:  handlers.NewQuoteHandler(quoteService),
		Timeout:       cfg.Server.RequestTimeout,
	})

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
