package acl

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/classquotes/internal/adapters/clients"
	"github.com/jsamuelsen/classquotes/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestMapHTTPError_Status(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"Quote not found"}}`, domain.IsNotFound},
		{"bad request", http.StatusBadRequest, `{"error":{"code":"BAD_REQUEST","message":"malformed JSON"}}`, domain.IsValidation},
		{"unprocessable", http.StatusUnprocessableEntity, ``, domain.IsValidation},
		{"forbidden", http.StatusForbidden, `{"error":{"code":"FORBIDDEN","message":"admin role required"}}`, domain.IsForbidden},
		{"unauthorized", http.StatusUnauthorized, ``, domain.IsForbidden},
		{"rate limited", http.StatusTooManyRequests, ``, domain.IsUnavailable},
		{"server error", http.StatusInternalServerError, `{"error":{"code":"INTERNAL_ERROR","message":"boom"}}`, domain.IsUnavailable},
		{"bad gateway", http.StatusBadGateway, `<html>`, domain.IsUnavailable},
		{"other 4xx", http.StatusTeapot, ``, domain.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(response(tt.status, tt.body), nil, "classquotes", "get quote", "q-1")
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestMapHTTPError_UsesEnvelopeMessage(t *testing.T) {
	err := MapHTTPError(response(http.StatusForbidden, `{"error":{"code":"FORBIDDEN","message":"admin role required"}}`),
		nil, "classquotes", "delete quote", "q-1")

	assert.Contains(t, err.Error(), "admin role required")
}

func TestMapHTTPError_ValidationKeepsEveryField(t *testing.T) {
	body := `{"error":{"code":"VALIDATION_ERROR","message":"validation failed","details":{"type":"must be one of: Teacher, Student, None","name":"must be at least 1 characters"}}}`

	err := MapHTTPError(response(http.StatusBadRequest, body), nil, "classquotes", "create quote", "")

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"name": "must be at least 1 characters",
		"type": "must be one of: Teacher, Student, None",
	}, ve.Fields())
	assert.Equal(t, "name", ve.Violations[0].Field)
}

func TestMapHTTPError_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"circuit open", clients.ErrCircuitOpen, "circuit breaker open"},
		{"retries", fmt.Errorf("%w: dial", clients.ErrMaxRetriesExceeded), "max retries exceeded"},
		{"other", errors.New("tls handshake"), "tls handshake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(nil, tt.err, "classquotes", "list quotes", "")
			assert.True(t, domain.IsUnavailable(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMapHTTPError_SuccessAndNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusOK, ""), nil, "classquotes", "list", ""))
	assert.True(t, domain.IsUnavailable(MapHTTPError(nil, nil, "classquotes", "list", "")))
}

func TestParseErrorResponse(t *testing.T) {
	assert.Nil(t, ParseErrorResponse(nil))
	assert.Nil(t, ParseErrorResponse(strings.NewReader("")))
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`{"foo":1}`)))

	got := ParseErrorResponse(strings.NewReader(`{"error":{"code":"NOT_FOUND","message":"Quote not found"},"traceId":"abc"}`))
	require.NotNil(t, got)
	assert.Equal(t, "NOT_FOUND", got.Error.Code)
	assert.Equal(t, "abc", got.TraceID)
}

func TestDecodeResponse(t *testing.T) {
	got, err := DecodeResponse[quoteDTO](io.NopCloser(strings.NewReader(`{"id":"a","type":"None"}`)))
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	_, err = DecodeResponse[quoteDTO](io.NopCloser(strings.NewReader(`{`)))
	require.Error(t, err)

	_, err = DecodeResponse[quoteDTO](nil)
	require.Error(t, err)
}

func TestTranslateSlice(t *testing.T) {
	out, err := TranslateSlice([]quoteDTO{}, translateQuote)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = TranslateSlice([]quoteDTO{{ID: "", Type: "None"}}, translateQuote)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
