// Package ports defines the contracts between the quote board core and the
// infrastructure that backs it. Adapters implement these; the app layer and
// the HTTP handlers depend only on them.
package ports

import (
	"context"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

// QuoteStore persists quotes. Every implementation must be safe for
// concurrent use and must have durably applied a mutation before returning.
//
// Failures of the medium are reported as *domain.StorageError; after any
// error the visible state equals the last successfully persisted state.
type QuoteStore interface {
	// List returns every stored quote. Callers must not rely on the order.
	List(ctx context.Context) ([]domain.Quote, error)

	// Get returns domain.NotFoundError when id is unknown.
	Get(ctx context.Context, id string) (*domain.Quote, error)

	// Create assigns a fresh unique id and stores the draft.
	Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error)

	// Update merges patch into the quote with the given id. It never
	// creates a quote; unknown ids yield domain.NotFoundError.
	Update(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error)

	// Delete reports whether a quote was removed.
	Delete(ctx context.Context, id string) (bool, error)

	// Close releases the underlying medium.
	Close() error
}

// SnapshotCache is a client-side copy of the last known quote collection.
type SnapshotCache interface {
	// Load returns the cached snapshot, empty when nothing is cached.
	Load(ctx context.Context) ([]domain.Quote, error)

	// Save replaces the cached snapshot.
	Save(ctx context.Context, quotes []domain.Quote) error
}
