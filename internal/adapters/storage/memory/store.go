// Package memory keeps quotes in a process-local map. Nothing survives a
// restart; it is the default backend for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/classquotes/internal/domain"
)

// Store is a map-backed ports.QuoteStore.
type Store struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

// New returns a store holding seed.
func New(seed []domain.Quote) *Store {
	s := &Store{quotes: make(map[string]domain.Quote, len(seed))}
	for _, q := range seed {
		s.quotes[q.ID] = q
	}

	return s
}

// List implements ports.QuoteStore; it returns a copy of every quote.
func (s *Store) List(_ context.Context) ([]domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		out = append(out, q)
	}

	return out, nil
}

// Get implements ports.QuoteStore.
func (s *Store) Get(_ context.Context, id string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return &q, nil
}

// Create implements ports.QuoteStore.
func (s *Store) Create(_ context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := draft.WithID(uuid.NewString())
	s.quotes[q.ID] = q

	return &q, nil
}

// Update implements ports.QuoteStore.
func (s *Store) Update(_ context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.quotes[id]
	if !ok {
		return nil, domain.NewNotFoundError("quote", id)
	}

	updated := patch.Apply(current)
	s.quotes[id] = updated

	return &updated, nil
}

// Delete implements ports.QuoteStore; it reports whether a quote was removed.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotes[id]; !ok {
		return false, nil
	}

	delete(s.quotes, id)

	return true, nil
}

// Close implements ports.QuoteStore; there is nothing to release.
func (s *Store) Close() error { return nil }

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "quote-store" }

// Check implements ports.HealthChecker; memory is always available.
func (s *Store) Check(_ context.Context) error { return nil }
