package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/ports"
)

// Catalog is the CLI's view of a remote quote board. It keeps a local
// snapshot so that listing works offline and after restarts.
//
// Reconciliation rules:
//   - an empty snapshot adopts the remote collection
//   - a non-empty snapshot is authoritative for reads until Sync
//   - each mutation goes to the remote first, then the snapshot is replaced
//     with a fresh remote listing; when that listing fails the mutation is
//     applied to the snapshot directly
//
// Concurrent editors are not merged: the last snapshot written wins.
type Catalog struct {
	remote ports.QuoteStore
	cache  ports.SnapshotCache
	logger *slog.Logger
	now    func() time.Time
}

// CatalogConfig contains the dependencies of Catalog.
type CatalogConfig struct {
	Remote ports.QuoteStore
	Cache  ports.SnapshotCache
	Logger *slog.Logger
	Now    func() time.Time
}

// NewCatalog panics when Remote or Cache is missing.
func NewCatalog(cfg CatalogConfig) *Catalog {
	if cfg.Remote == nil || cfg.Cache == nil {
		panic("app: Catalog requires Remote and Cache")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Catalog{
		remote: cfg.Remote,
		cache:  cfg.Cache,
		logger: logger.With(slog.String("component", "app.Catalog")),
		now:    now,
	}
}

// Load returns the working collection.
func (c *Catalog) Load(ctx context.Context) ([]domain.Quote, error) {
	local, err := c.cache.Load(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "ignoring unreadable snapshot", slog.Any("error", err))
		local = nil
	}

	if len(local) > 0 {
		return local, nil
	}

	remote, err := c.remote.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading quotes: %w", err)
	}

	c.save(ctx, remote)

	return remote, nil
}

// Visible loads the collection and applies f.
func (c *Catalog) Visible(ctx context.Context, f domain.Filters) ([]domain.Quote, error) {
	quotes, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	return domain.VisibleQuotesAt(quotes, f, c.now()), nil
}

// Sync replaces the snapshot with the remote collection. When the remote
// cannot be reached the snapshot is returned with the error.
func (c *Catalog) Sync(ctx context.Context) ([]domain.Quote, error) {
	remote, err := c.remote.List(ctx)
	if err != nil {
		local, _ := c.cache.Load(ctx)
		return local, fmt.Errorf("syncing quotes: %w", err)
	}

	if err := c.cache.Save(ctx, remote); err != nil {
		return remote, fmt.Errorf("syncing quotes: %w", err)
	}

	c.logger.InfoContext(ctx, "synced snapshot", slog.Int("count", len(remote)))

	return remote, nil
}

// Create validates in locally, then creates it remotely.
func (c *Catalog) Create(ctx context.Context, in domain.CreateInput) (*domain.Quote, error) {
	draft, err := domain.NewQuoteDraft(in, c.now())
	if err != nil {
		return nil, err
	}

	q, err := c.remote.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	c.refresh(ctx, func(local []domain.Quote) []domain.Quote {
		return append(local, *q)
	})

	return q, nil
}

// Update validates in locally, then patches the remote quote.
func (c *Catalog) Update(ctx context.Context, id string, in domain.PatchInput) (*domain.Quote, error) {
	patch, err := domain.NewQuotePatch(in)
	if err != nil {
		return nil, err
	}

	q, err := c.remote.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}

	c.refresh(ctx, func(local []domain.Quote) []domain.Quote {
		for i := range local {
			if local[i].ID == id {
				local[i] = *q
			}
		}

		return local
	})

	return q, nil
}

// Delete removes id remotely; an unknown id is a domain.NotFoundError.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	deleted, err := c.remote.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}

	if !deleted {
		return domain.NewNotFoundError("quote", id)
	}

	c.refresh(ctx, func(local []domain.Quote) []domain.Quote {
		return slices.DeleteFunc(local, func(q domain.Quote) bool { return q.ID == id })
	})

	return nil
}

// refresh replaces the snapshot after a successful mutation. When the
// remote listing fails, apply is used to patch the current snapshot.
func (c *Catalog) refresh(ctx context.Context, apply func([]domain.Quote) []domain.Quote) {
	remote, err := c.remote.List(ctx)
	if err == nil {
		c.save(ctx, remote)
		return
	}

	c.logger.WarnContext(ctx, "refresh failed, patching snapshot locally", slog.Any("error", err))

	local, err := c.cache.Load(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "snapshot unreadable", slog.Any("error", err))
		return
	}

	c.save(ctx, apply(local))
}

func (c *Catalog) save(ctx context.Context, quotes []domain.Quote) {
	if err := c.cache.Save(ctx, quotes); err != nil {
		c.logger.WarnContext(ctx, "failed to write snapshot", slog.Any("error", err))
	}
}
