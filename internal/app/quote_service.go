// Package app contains the use cases of the quote board. It validates
// untrusted input, calls the ports and applies the filter engine.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/ports"
)

// QuoteService serves the quote collection to the HTTP layer.
type QuoteService struct {
	store  ports.QuoteStore
	logger *slog.Logger
	now    func() time.Time
}

// QuoteServiceConfig contains the dependencies of QuoteService.
type QuoteServiceConfig struct {
	Store  ports.QuoteStore
	Logger *slog.Logger

	// Now is used for defaults and time windows. Defaults to time.Now.
	Now func() time.Time
}

// NewQuoteService panics when no store is supplied.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Store == nil {
		panic("app: QuoteService requires a Store")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &QuoteService{
		store:  cfg.Store,
		logger: logger.With(slog.String("component", "app.QuoteService")),
		now:    now,
	}
}

// List returns the quotes visible under f, newest first.
func (s *QuoteService) List(ctx context.Context, f domain.Filters) ([]domain.Quote, error) {
	quotes, err := s.store.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list quotes", slog.Any("error", err))
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	visible := domain.VisibleQuotesAt(quotes, f, s.now())

	s.logger.DebugContext(ctx, "listed quotes",
		slog.Int("total", len(quotes)),
		slog.Int("visible", len(visible)),
	)

	return visible, nil
}

// Get returns one quote or a domain.NotFoundError.
func (s *QuoteService) Get(ctx context.Context, id string) (*domain.Quote, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	return q, nil
}

// Create validates in and stores it.
func (s *QuoteService) Create(ctx context.Context, in domain.CreateInput) (*domain.Quote, error) {
	draft, err := domain.NewQuoteDraft(in, s.now())
	if err != nil {
		return nil, err
	}

	q, err := s.store.Create(ctx, draft)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create quote", slog.Any("error", err))
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "created quote",
		slog.String("quote_id", q.ID),
		slog.String("type", string(q.Type)),
	)

	return q, nil
}

// Update validates the present fields of in and applies them.
func (s *QuoteService) Update(ctx context.Context, id string, in domain.PatchInput) (*domain.Quote, error) {
	patch, err := domain.NewQuotePatch(in)
	if err != nil {
		return nil, err
	}

	q, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if !domain.IsNotFound(err) {
			s.logger.ErrorContext(ctx, "failed to update quote",
				slog.String("quote_id", id),
				slog.Any("error", err),
			)
		}

		return nil, fmt.Errorf("updating quote: %w", err)
	}

	s.logger.InfoContext(ctx, "updated quote", slog.String("quote_id", id))

	return q, nil
}

// Delete removes a quote. Unknown ids yield a domain.NotFoundError.
func (s *QuoteService) Delete(ctx context.Context, id string) error {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete quote",
			slog.String("quote_id", id),
			slog.Any("error", err),
		)

		return fmt.Errorf("deleting quote: %w", err)
	}

	if !deleted {
		return domain.NewNotFoundError("quote", id)
	}

	s.logger.InfoContext(ctx, "deleted quote", slog.String("quote_id", id))

	return nil
}
