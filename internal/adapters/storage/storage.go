// Package storage selects and instruments the quote store backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/classquotes/internal/adapters/storage/jsonfile"
	"github.com/jsamuelsen/classquotes/internal/adapters/storage/memory"
	"github.com/jsamuelsen/classquotes/internal/adapters/storage/relational"
	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/ports"
)

// Backend names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = relational.DriverSQLite
	DriverPostgres = relational.DriverPostgres
)

// Config controls which backend Open builds.
type Config struct {
	Driver string

	// Path is the JSON document for the file driver.
	Path string

	// DSN is the connection string for sqlite and postgres.
	DSN string

	MaxConns int32

	// Now anchors the seed timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Store is a quote store that can also report its health.
type Store interface {
	ports.QuoteStore
	ports.HealthChecker
}

// Open builds the configured backend and wraps it with metrics and tracing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	seed := func() []domain.Quote { return domain.SeedQuotes(now()) }

	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	logger = logger.With(slog.String("component", "storage"), slog.String("driver", driver))

	var (
		st  Store
		err error
	)

	switch driver {
	case DriverMemory:
		st = memory.New(seed())
	case DriverFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file driver requires a path")
		}

		st = jsonfile.New(cfg.Path, seed)
	case DriverSQLite, DriverPostgres:
		st, err = relational.Open(ctx, relational.Options{
			Driver:   driver,
			DSN:      cfg.DSN,
			MaxConns: cfg.MaxConns,
			Seed:     seed,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", driver, err)
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	logger.InfoContext(ctx, "quote store ready")

	return Instrument(st, driver), nil
}
