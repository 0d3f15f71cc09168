package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/classquotes/internal/domain"
	"github.com/jsamuelsen/classquotes/internal/mocks"
)

var catalogNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) (*Catalog, *mocks.MockQuoteStore, *mocks.MockSnapshotCache) {
	t.Helper()

	remote := mocks.NewMockQuoteStore(t)
	cache := mocks.NewMockSnapshotCache(t)

	return NewCatalog(CatalogConfig{
		Remote: remote,
		Cache:  cache,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return catalogNow },
	}), remote, cache
}

func TestNewCatalog_Panics(t *testing.T) {
	assert.Panics(t, func() { NewCatalog(CatalogConfig{}) })
	assert.Panics(t, func() { NewCatalog(CatalogConfig{Remote: mocks.NewMockQuoteStore(t)}) })
}

func TestCatalog_Load_EmptyCacheAdoptsRemote(t *testing.T) {
	c, remote, cache := newTestCatalog(t)
	remoteQuotes := []domain.Quote{{ID: "r1", Name: "a", Text: "b", Type: domain.RoleNone}}

	cache.EXPECT().Load(mock.Anything).Return([]domain.Quote{}, nil).Once()
	remote.EXPECT().List(mock.Anything).Return(remoteQuotes, nil).Once()
	cache.EXPECT().Save(mock.Anything, remoteQuotes).Return(nil).Once()

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remoteQuotes, got)
}

func TestCatalog_Load_LocalIsAuthoritative(t *testing.T) {
	c, _, cache := newTestCatalog(t)
	local := []domain.Quote{{ID: "l1", Name: "a", Text: "b", Type: domain.RoleNone}}

	cache.EXPECT().Load(mock.Anything).Return(local, nil).Once()

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

func TestCatalog_Load_RemoteFailureWithEmptyCache(t *testing.T) {
	c, remote, cache := newTestCatalog(t)

	cache.EXPECT().Load(mock.Anything).Return(nil, nil).Once()
	remote.EXPECT().List(mock.Anything).Return(nil, domain.NewUnavailableError("classquotes", "down")).Once()

	_, err := c.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestCatalog_Load_UnreadableCacheFallsBackToRemote(t *testing.T) {
	c, remote, cache := newTestCatalog(t)
	remoteQuotes := []domain.Quote{{ID: "r1"}}

	cache.EXPECT().Load(mock.Anything).Return(nil, domain.NewStorageError("load cache", errors.New("corrupt"))).Once()
	remote.EXPECT().List(mock.Anything).Return(remoteQuotes, nil).Once()
	cache.EXPECT().Save(mock.Anything, remoteQuotes).Return(nil).Once()

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remoteQuotes, got)
}

func TestCatalog_Visible_AppliesFilters(t *testing.T) {
	c, _, cache := newTestCatalog(t)
	ms := catalogNow.UnixMilli()

	cache.EXPECT().Load(mock.Anything).Return([]domain.Quote{
		{ID: "old", Name: "Herr Kunz", Text: "x", Type: domain.RoleTeacher, Timestamp: ms - 30*24*3600*1000},
		{ID: "new", Name: "Herr Kunz", Text: "y", Type: domain.RoleTeacher, Timestamp: ms - 1000},
		{ID: "stu", Name: "Lena", Text: "z", Type: domain.RoleStudent, Timestamp: ms - 500},
	}, nil).Once()

	got, err := c.Visible(context.Background(), domain.Filters{
		Search: "kunz",
		Role:   domain.RoleFilterTeacher,
		Time:   domain.TimeFilterWeek,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestCatalog_Sync(t *testing.T) {
	t.Run("replaces snapshot", func(t *testing.T) {
		c, remote, cache := newTestCatalog(t)
		remoteQuotes := []domain.Quote{{ID: "r1"}, {ID: "r2"}}

		remote.EXPECT().List(mock.Anything).Return(remoteQuotes, nil).Once()
		cache.EXPECT().Save(mock.Anything, remoteQuotes).Return(nil).Once()

		got, err := c.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, remoteQuotes, got)
	})

	t.Run("remote down returns snapshot and error", func(t *testing.T) {
		c, remote, cache := newTestCatalog(t)
		local := []domain.Quote{{ID: "l1"}}

		remote.EXPECT().List(mock.Anything).Return(nil, domain.NewUnavailableError("classquotes", "down")).Once()
		cache.EXPECT().Load(mock.Anything).Return(local, nil).Once()

		got, err := c.Sync(context.Background())
		require.Error(t, err)
		assert.Equal(t, local, got)
	})
}

func TestCatalog_Create(t *testing.T) {
	name, text := "Frau Berg", "Setzen."

	t.Run("validates before calling remote", func(t *testing.T) {
		c, _, _ := newTestCatalog(t)

		_, err := c.Create(context.Background(), domain.CreateInput{Name: &name})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("refreshes snapshot from remote", func(t *testing.T) {
		c, remote, cache := newTestCatalog(t)
		created := &domain.Quote{ID: "n1", Name: name, Text: text, Type: domain.RoleNone, Timestamp: catalogNow.UnixMilli()}
		after := []domain.Quote{*created}

		remote.EXPECT().Create(mock.Anything, domain.QuoteDraft{
			Name: name, Text: text, Type: domain.RoleNone, Timestamp: catalogNow.UnixMilli(),
		}).Return(created, nil).Once()
		remote.EXPECT().List(mock.Anything).Return(after, nil).Once()
		cache.EXPECT().Save(mock.Anything, after).Return(nil).Once()

		got, err := c.Create(context.Background(), domain.CreateInput{Name: &name, Text: &text})
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("patches snapshot when refresh fails", func(t *testing.T) {
		c, remote, cache := newTestCatalog(t)
		existing := domain.Quote{ID: "e1"}
		created := &domain.Quote{ID: "n1", Name: name, Text: text, Type: domain.RoleNone}

		remote.EXPECT().Create(mock.Anything, mock.Anything).Return(created, nil).Once()
		remote.EXPECT().List(mock.Anything).Return(nil, errors.New("timeout")).Once()
		cache.EXPECT().Load(mock.Anything).Return([]domain.Quote{existing}, nil).Once()
		cache.EXPECT().Save(mock.Anything, []domain.Quote{existing, *created}).Return(nil).Once()

		_, err := c.Create(context.Background(), domain.CreateInput{Name: &name, Text: &text})
		require.NoError(t, err)
	})
}

func TestCatalog_Update_PatchesSnapshotWhenRefreshFails(t *testing.T) {
	c, remote, cache := newTestCatalog(t)
	text := "neu"
	updated := &domain.Quote{ID: "a", Text: text}

	remote.EXPECT().Update(mock.Anything, "a", domain.QuotePatch{Text: &text}).Return(updated, nil).Once()
	remote.EXPECT().List(mock.Anything).Return(nil, errors.New("timeout")).Once()
	cache.EXPECT().Load(mock.Anything).Return([]domain.Quote{{ID: "a", Text: "alt"}, {ID: "b"}}, nil).Once()
	cache.EXPECT().Save(mock.Anything, []domain.Quote{*updated, {ID: "b"}}).Return(nil).Once()

	got, err := c.Update(context.Background(), "a", domain.PatchInput{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestCatalog_Update_RemoteNotFound(t *testing.T) {
	c, remote, _ := newTestCatalog(t)
	text := "neu"

	remote.EXPECT().Update(mock.Anything, "gone", mock.Anything).Return(nil, domain.NewNotFoundError("quote", "gone")).Once()

	_, err := c.Update(context.Background(), "gone", domain.PatchInput{Text: &text})
	assert.True(t, domain.IsNotFound(err))
}

func TestCatalog_Delete(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		c, remote, _ := newTestCatalog(t)
		remote.EXPECT().Delete(mock.Anything, "gone").Return(false, nil).Once()

		err := c.Delete(context.Background(), "gone")
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("patches snapshot when refresh fails", func(t *testing.T) {
		c, remote, cache := newTestCatalog(t)

		remote.EXPECT().Delete(mock.Anything, "a").Return(true, nil).Once()
		remote.EXPECT().List(mock.Anything).Return(nil, errors.New("timeout")).Once()
		cache.EXPECT().Load(mock.Anything).Return([]domain.Quote{{ID: "a"}, {ID: "b"}}, nil).Once()
		cache.EXPECT().Save(mock.Anything, []domain.Quote{{ID: "b"}}).Return(nil).Once()

		require.NoError(t, c.Delete(context.Background(), "a"))
	})

	t.Run("remote failure leaves snapshot alone", func(t *testing.T) {
		c, remote, _ := newTestCatalog(t)
		remote.EXPECT().Delete(mock.Anything, "a").Return(false, domain.NewForbiddenError("delete quote", "admin role required")).Once()

		err := c.Delete(context.Background(), "a")
		assert.True(t, domain.IsForbidden(err))
	})
}
