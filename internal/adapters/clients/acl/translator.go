// Package acl is the anti-corruption layer between the quote CLI and a remote
// classquotes service. It turns wire DTOs and HTTP failures into domain
// values and domain errors so nothing above it sees HTTP.
package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/classquotes/internal/adapters/clients"
	"github.com/jsamuelsen/classquotes/internal/domain"
)

// BaseAdapter maps transport results to domain errors. Embed it in
// resource-specific adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a BaseAdapter.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// call runs send and returns the body of a 2xx response (caller closes it).
// Error responses are consumed and mapped; entityID names the resource for
// not-found errors.
func (a *BaseAdapter) call(
	operation, entityID string,
	send func() (*http.Response, error),
) (*http.Response, error) {
	resp, err := send()
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	}

	return resp, nil
}

func (a *BaseAdapter) get(ctx context.Context, path, operation, entityID string) (io.ReadCloser, error) {
	resp, err := a.call(operation, entityID, func() (*http.Response, error) {
		return a.client.Get(ctx, path)
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (a *BaseAdapter) post(ctx context.Context, path string, body any, operation string) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", operation, err)
	}

	resp, err := a.call(operation, "", func() (*http.Response, error) {
		return a.client.Post(ctx, path, data)
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (a *BaseAdapter) patch(ctx context.Context, path string, body any, operation, entityID string) (io.ReadCloser, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", operation, err)
	}

	resp, err := a.call(operation, entityID, func() (*http.Response, error) {
		return a.client.Patch(ctx, path, data)
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func (a *BaseAdapter) delete(ctx context.Context, path, operation, entityID string) error {
	resp, err := a.call(operation, entityID, func() (*http.Response, error) {
		return a.client.Delete(ctx, path)
	})
	if err != nil {
		return err
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.Body.Close()
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// ValidateRequired rejects an empty value.
func ValidateRequired(value, fieldName string) error {
	if value == "" {
		return domain.NewValidationError(fieldName, "is required")
	}

	return nil
}

// Translator converts one external DTO into a domain value.
type Translator[External any, Domain any] func(ext *External) (*Domain, error)

// TranslateSlice translates every item, stopping at the first failure.
func TranslateSlice[E any, D any](items []E, translate Translator[E, D]) ([]D, error) {
	result := make([]D, 0, len(items))

	for i := range items {
		translated, err := translate(&items[i])
		if err != nil {
			return nil, fmt.Errorf("translating item %d: %w", i, err)
		}

		result = append(result, *translated)
	}

	return result, nil
}
