// Package jsonfile persists quotes as a single JSON array document. The
// whole document is rewritten on every mutation.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

// Store is a file-backed ports.QuoteStore. The file is read lazily on the
// first call; when it does not exist the seed is written instead.
type Store struct {
	path string
	seed func() []domain.Quote

	mu     sync.RWMutex
	quotes []domain.Quote // nil until loaded
}

// New returns a store for the document at path. seed is only invoked when
// the document does not exist yet.
func New(path string, seed func() []domain.Quote) *Store {
	return &Store{path: path, seed: seed}
}

func (s *Store) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.quotes != nil
	s.mu.RUnlock()

	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quotes != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return domain.NewStorageError("init", err)
	}

	quotes, exists, err := ReadSnapshot(s.path)
	if err != nil {
		return domain.NewStorageError("init", err)
	}

	if !exists {
		quotes = []domain.Quote{}
		if s.seed != nil {
			quotes = append(quotes, s.seed()...)
		}

		if err := WriteSnapshot(s.path, quotes); err != nil {
			return domain.NewStorageError("init", err)
		}
	}

	s.quotes = quotes

	return nil
}

// List implements ports.QuoteStore, loading the document on first use.
func (s *Store) List(_ context.Context) ([]domain.Quote, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.quotes), nil
}

// Get implements ports.QuoteStore.
func (s *Store) Get(_ context.Context, id string) (*domain.Quote, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.NewNotFoundError("quote", id)
	}

	q := s.quotes[i]

	return &q, nil
}

// Create implements ports.QuoteStore; the document is rewritten atomically.
func (s *Store) Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := draft.WithID(uuid.NewString())
	next := append(slices.Clone(s.quotes), q)

	if err := s.commit(ctx, "create", next); err != nil {
		return nil, err
	}

	return &q, nil
}

// Update implements ports.QuoteStore.
func (s *Store) Update(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, domain.NewNotFoundError("quote", id)
	}

	next := slices.Clone(s.quotes)
	next[i] = patch.Apply(next[i])
	updated := next[i]

	if err := s.commit(ctx, "update", next); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete implements ports.QuoteStore; it reports whether a quote was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := s.ensureLoaded(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := slices.Delete(slices.Clone(s.quotes), i, i+1)

	if err := s.commit(ctx, "delete", next); err != nil {
		return false, err
	}

	return true, nil
}

// Close implements ports.QuoteStore.
func (s *Store) Close() error { return nil }

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "quote-store" }

// Check verifies the document can be loaded.
func (s *Store) Check(_ context.Context) error {
	return s.ensureLoaded()
}

// commit persists next and only then makes it visible. Callers hold mu.
func (s *Store) commit(ctx context.Context, op string, next []domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(op, err)
	}

	if err := WriteSnapshot(s.path, next); err != nil {
		return domain.NewStorageError(op, fmt.Errorf("persisting quotes: %w", err))
	}

	s.quotes = next

	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.quotes, func(q domain.Quote) bool { return q.ID == id })
}
