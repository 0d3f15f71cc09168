package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/classquotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/classquotes/internal/app"
	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/mocks"
)

var handlerNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func setupQuoteRouter(t *testing.T, guard ...gin.HandlerFunc) (*gin.Engine, *mocks.MockQuoteStore) {
	t.Helper()

	store := mocks.NewMockQuoteStore(t)
	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:  store,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return handlerNow },
	})

	router := gin.New()
	NewQuoteHandler(service).RegisterQuoteRoutes(router.Group("/api"), guard...)

	return router, store
}

func serve(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	return resp
}

func TestQuoteHandler_List(t *testing.T) {
	ms := handlerNow.UnixMilli()
	all := []domain.Quote{
		{ID: "a", Name: "Herr Müller", Text: "Ruhe bitte", Type: domain.RoleTeacher, Timestamp: ms - 100_000_000},
		{ID: "b", Name: "Sarah Jenkins", Text: "Darf ich aufs Klo?", Type: domain.RoleStudent, Timestamp: ms - 50_000_000},
		{ID: "c", Name: "Hausmeister", Text: "Nicht rennen", Type: domain.RoleNone, Timestamp: ms - 10*24*3600*1000},
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "all, newest first", wantIDs: []string{"b", "a", "c"}},
		{name: "role", query: "?role=Teacher", wantIDs: []string{"a"}},
		{name: "window", query: "?time=7+Days", wantIDs: []string{"b", "a"}},
		{name: "search is case insensitive", query: "?search=KLO", wantIDs: []string{"b"}},
		{name: "nothing matches", query: "?search=mathe", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, store := setupQuoteRouter(t)
			store.EXPECT().List(mock.Anything).Return(all, nil).Once()

			w := serve(router, http.MethodGet, "/api/quotes"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			var got []QuoteResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

			ids := make([]string, 0, len(got))
			for _, q := range got {
				ids = append(ids, q.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestQuoteHandler_List_EmptyIsArray(t *testing.T) {
	router, store := setupQuoteRouter(t)
	store.EXPECT().List(mock.Anything).Return(nil, nil).Once()

	w := serve(router, http.MethodGet, "/api/quotes", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestQuoteHandler_List_BadFilter(t *testing.T) {
	router, _ := setupQuoteRouter(t)

	w := serve(router, http.MethodGet, "/api/quotes?role=Janitor", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidation, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "role")
}

func TestQuoteHandler_List_StorageFailure(t *testing.T) {
	router, store := setupQuoteRouter(t)
	store.EXPECT().List(mock.Anything).Return(nil, domain.NewStorageError("list", errors.New("EIO on quotes.json"))).Once()

	w := serve(router, http.MethodGet, "/api/quotes", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "quotes.json")
}

func TestQuoteHandler_Get(t *testing.T) {
	router, store := setupQuoteRouter(t)
	store.EXPECT().Get(mock.Anything, "a").Return(&domain.Quote{
		ID: "a", Name: "Herr Müller", Text: "Ruhe", Type: domain.RoleTeacher, Timestamp: 42,
	}, nil).Once()
	store.EXPECT().Get(mock.Anything, "missing").Return(nil, domain.NewNotFoundError("quote", "missing")).Once()

	w := serve(router, http.MethodGet, "/api/quotes/a", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"a","name":"Herr Müller","text":"Ruhe","type":"Teacher","timestamp":42}`, w.Body.String())

	w = serve(router, http.MethodGet, "/api/quotes/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Quote not found", decodeError(t, w).Error.Message)
}

func TestQuoteHandler_Create(t *testing.T) {
	t.Run("defaults type and timestamp", func(t *testing.T) {
		router, store := setupQuoteRouter(t)
		draft := domain.QuoteDraft{Name: "Frau Berg", Text: "Setzen.", Type: domain.RoleNone, Timestamp: handlerNow.UnixMilli()}
		store.EXPECT().Create(mock.Anything, draft).Return(&domain.Quote{
			ID: "n1", Name: draft.Name, Text: draft.Text, Type: draft.Type, Timestamp: draft.Timestamp,
		}, nil).Once()

		w := serve(router, http.MethodPost, "/api/quotes", `{"name":"Frau Berg","text":"Setzen."}`)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/api/quotes/n1", w.Header().Get("Location"))

		var got QuoteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "None", got.Type)
		assert.Equal(t, handlerNow.UnixMilli(), got.Timestamp)
	})

	t.Run("every invalid field is listed", func(t *testing.T) {
		router, _ := setupQuoteRouter(t)

		w := serve(router, http.MethodPost, "/api/quotes", `{"name":"","type":"Janitor","timestamp":-1}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		details := decodeError(t, w).Error.Details
		assert.Len(t, details, 4)
		assert.Equal(t, "this field is required", details["text"])
		assert.Contains(t, details, "name")
		assert.Contains(t, details, "type")
		assert.Contains(t, details, "timestamp")
	})

	t.Run("wrong json type", func(t *testing.T) {
		router, _ := setupQuoteRouter(t)

		w := serve(router, http.MethodPost, "/api/quotes", `{"name":"a","text":"b","timestamp":"now"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Error.Details, "timestamp")
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := setupQuoteRouter(t)

		w := serve(router, http.MethodPost, "/api/quotes", `{"name":`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeBadRequest, decodeError(t, w).Error.Code)
	})
}

func TestQuoteHandler_Update(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		router, store := setupQuoteRouter(t)
		text := "Neuer Text"
		store.EXPECT().Update(mock.Anything, "a", domain.QuotePatch{Text: &text}).Return(&domain.Quote{
			ID: "a", Name: "Herr Müller", Text: text, Type: domain.RoleTeacher, Timestamp: 1,
		}, nil).Once()

		w := serve(router, http.MethodPatch, "/api/quotes/a", `{"text":"Neuer Text"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var got QuoteResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Herr Müller", got.Name)
		assert.Equal(t, text, got.Text)
	})

	t.Run("unknown id", func(t *testing.T) {
		router, store := setupQuoteRouter(t)
		store.EXPECT().Update(mock.Anything, "gone", mock.Anything).Return(nil, domain.NewNotFoundError("quote", "gone")).Once()

		w := serve(router, http.MethodPatch, "/api/quotes/gone", `{"text":"x"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid field", func(t *testing.T) {
		router, _ := setupQuoteRouter(t)

		w := serve(router, http.MethodPatch, "/api/quotes/a", `{"type":"Principal"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQuoteHandler_Delete(t *testing.T) {
	router, store := setupQuoteRouter(t)
	store.EXPECT().Delete(mock.Anything, "a").Return(true, nil).Once()
	store.EXPECT().Delete(mock.Anything, "a").Return(false, nil).Once()

	w := serve(router, http.MethodDelete, "/api/quotes/a", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = serve(router, http.MethodDelete, "/api/quotes/a", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandler_GuardOnlyCoversWrites(t *testing.T) {
	deny := func(c *gin.Context) {
		dto.AbortWithError(c, domain.NewForbiddenError("write quotes", "admin role required"))
	}

	router, store := setupQuoteRouter(t, deny)
	store.EXPECT().List(mock.Anything).Return(nil, nil).Once()

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/quotes", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/api/quotes", `{"name":"a","text":"b"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPatch, "/api/quotes/a", `{"text":"b"}`).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodDelete, "/api/quotes/a", "").Code)
}
