package acl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jsamuelsen/classquotes/internal/adapters/clients"
	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

const quotesPath = "/api/quotes"

// QuoteAPIConfig configures a QuoteAPI.
type QuoteAPIConfig struct {
	// Client must have its BaseURL pointed at a classquotes service.
	Client *clients.Client

	Logger *slog.Logger
}

// QuoteAPI is a ports.QuoteStore backed by a remote classquotes service.
type QuoteAPI struct {
	BaseAdapter

	logger *slog.Logger
}

// NewQuoteAPI panics when cfg.Client is nil.
func NewQuoteAPI(cfg QuoteAPIConfig) *QuoteAPI {
	if cfg.Client == nil {
		panic("QuoteAPI: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteAPI{
		BaseAdapter: NewBaseAdapter(cfg.Client, "classquotes"),
		logger:      logger.With(slog.String("component", "acl.QuoteAPI")),
	}
}

// quoteDTO is the wire form of a quote.
type quoteDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// createRequest mirrors the POST body; every field is always sent.
type createRequest struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// patchRequest carries only the fields being changed.
type patchRequest struct {
	Name      *string `json:"name,omitempty"`
	Text      *string `json:"text,omitempty"`
	Type      *string `json:"type,omitempty"`
	Timestamp *int64  `json:"timestamp,omitempty"`
}

func translateQuote(ext *quoteDTO) (*domain.Quote, error) {
	if err := ValidateRequired(ext.ID, "id"); err != nil {
		return nil, err
	}

	role, err := domain.ParseRole(ext.Type)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{
		ID:        ext.ID,
		Name:      ext.Name,
		Text:      ext.Text,
		Type:      role,
		Timestamp: ext.Timestamp,
	}, nil
}

func quotePath(id string) string {
	return quotesPath + "/" + url.PathEscape(id)
}

// List fetches the whole collection.
func (a *QuoteAPI) List(ctx context.Context) ([]domain.Quote, error) {
	a.logger.Log(ctx, logging.LevelTrace, "listing remote quotes")

	body, err := a.get(ctx, quotesPath, "list quotes", "")
	if err != nil {
		return nil, err
	}

	dtos, err := DecodeResponse[[]quoteDTO](body)
	if err != nil {
		return nil, domain.NewUnavailableError(a.serviceName, err.Error())
	}

	quotes, err := TranslateSlice(*dtos, translateQuote)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	a.logger.DebugContext(ctx, "listed remote quotes", slog.Int("count", len(quotes)))

	return quotes, nil
}

// Get fetches one quote.
func (a *QuoteAPI) Get(ctx context.Context, id string) (*domain.Quote, error) {
	body, err := a.get(ctx, quotePath(id), "get quote", id)
	if err != nil {
		return nil, err
	}

	return a.decodeQuote(body)
}

// Create posts draft; the remote assigns the id.
func (a *QuoteAPI) Create(ctx context.Context, draft domain.QuoteDraft) (*domain.Quote, error) {
	body, err := a.post(ctx, quotesPath, createRequest{
		Name:      draft.Name,
		Text:      draft.Text,
		Type:      string(draft.Type),
		Timestamp: draft.Timestamp,
	}, "create quote")
	if err != nil {
		return nil, err
	}

	quote, err := a.decodeQuote(body)
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "created remote quote", slog.String("quote_id", quote.ID))

	return quote, nil
}

// Update sends only the fields set in patch.
func (a *QuoteAPI) Update(ctx context.Context, id string, patch domain.QuotePatch) (*domain.Quote, error) {
	req := patchRequest{
		Name:      patch.Name,
		Text:      patch.Text,
		Timestamp: patch.Timestamp,
	}

	if patch.Type != nil {
		role := string(*patch.Type)
		req.Type = &role
	}

	body, err := a.patch(ctx, quotePath(id), req, "update quote", id)
	if err != nil {
		return nil, err
	}

	return a.decodeQuote(body)
}

// Delete reports false when the remote no longer has id.
func (a *QuoteAPI) Delete(ctx context.Context, id string) (bool, error) {
	err := a.delete(ctx, quotePath(id), "delete quote", id)
	if domain.IsNotFound(err) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Close is a no-op; the HTTP client owns no per-store resources.
func (a *QuoteAPI) Close() error {
	return nil
}

// Name implements ports.HealthChecker.
func (a *QuoteAPI) Name() string {
	return "quote-api"
}

// Check queries the remote's readiness endpoint.
func (a *QuoteAPI) Check(ctx context.Context) error {
	resp, err := a.client.Get(ctx, "/-/ready")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("quote service returned status %d", resp.StatusCode)
	}

	return nil
}

func (a *QuoteAPI) decodeQuote(body io.ReadCloser) (*domain.Quote, error) {
	dto, err := DecodeResponse[quoteDTO](body)
	if err != nil {
		return nil, domain.NewUnavailableError(a.serviceName, err.Error())
	}

	return translateQuote(dto)
}
