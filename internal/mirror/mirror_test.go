package mirror_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
	"github.com/daybookapp/daybook-server/internal/mirror"
)

func setupMirror(t *testing.T, maxBytes int) *mirror.Store {
	t.Helper()

	m, err := mirror.Open(filepath.Join(t.TempDir(), "mirror.db"), maxBytes, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func photoEntry(id string, touched int64) domain.Entry {
	return domain.Entry{
		ID:       id,
		Title:    "산책",
		Body:     "photo day #산책",
		Photo:    "data:image/jpeg;base64,AAAA",
		Photos:   []string{"data:image/jpeg;base64,AAAA"},
		RepIndex: 0,
		PhotoItems: []domain.PhotoItem{
			{DataURL: "data:image/jpeg;base64,AAAA", Name: "a.jpg", ShotAt: touched - 1000, Blurhash: "LKO2?U%2Tw=w"},
		},
		Date:    "2024-05-01",
		Touched: touched,
	}
}

func TestPut_StoresShrunkForm(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, photoEntry("ent-1", 100)))

	entries, err := m.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Empty(t, got.Photo)
	assert.Empty(t, got.Photos)
	require.Len(t, got.PhotoItems, 1)
	assert.Empty(t, got.PhotoItems[0].DataURL)
	assert.Equal(t, "LKO2?U%2Tw=w", got.PhotoItems[0].Blurhash)
	assert.Equal(t, "산책", got.Title)
	assert.Equal(t, int64(100), got.Touched)
}

func TestPut_UpsertsByID(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, photoEntry("ent-1", 100)))

	updated := photoEntry("ent-1", 200)
	updated.Body = "edited"
	require.NoError(t, m.Put(ctx, updated))

	entries, err := m.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "edited", entries[0].Body)
}

func TestPut_CapacityExceeded(t *testing.T) {
	m := setupMirror(t, 600)
	ctx := context.Background()

	// First write fits the tiny budget.
	first := domain.Entry{ID: "ent-1", Body: "x", Date: "2024-05-01", Touched: 1}
	require.NoError(t, m.Put(ctx, first))

	// A long body blows past the budget.
	big := domain.Entry{ID: "ent-2", Body: strings.Repeat("a", 600), Date: "2024-05-01", Touched: 2}
	err := m.Put(ctx, big)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrMirrorCapacity))

	// The failed write left no trace.
	entries, err := m.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ent-1", entries[0].ID)
}

func TestPut_ReplacingOwnRecordDoesNotDoubleCount(t *testing.T) {
	m := setupMirror(t, 400)
	ctx := context.Background()

	e := domain.Entry{ID: "ent-1", Body: strings.Repeat("a", 150), Date: "2024-05-01", Touched: 1}
	require.NoError(t, m.Put(ctx, e))

	// Rewriting the same id must budget against the replacement, not the
	// sum of old and new.
	e.Touched = 2
	require.NoError(t, m.Put(ctx, e))
}

func TestDelete_Idempotent(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, photoEntry("ent-1", 100)))
	require.NoError(t, m.Delete(ctx, "ent-1"))
	require.NoError(t, m.Delete(ctx, "ent-1"))
	require.NoError(t, m.Delete(ctx, "ent-never"))

	entries, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUsedBytes(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	used, err := m.UsedBytes(ctx)
	require.NoError(t, err)
	assert.Zero(t, used)

	require.NoError(t, m.Put(ctx, photoEntry("ent-1", 100)))

	used, err = m.UsedBytes(ctx)
	require.NoError(t, err)
	assert.Positive(t, used)
	assert.Equal(t, int64(1<<20), m.MaxBytes())
}

func TestRememberSearch_DedupAndCap(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	// Empty searches are ignored.
	require.NoError(t, m.RememberSearch(ctx, mirror.Search{}))

	searches, err := m.RecentSearches(ctx)
	require.NoError(t, err)
	assert.Empty(t, searches)

	require.NoError(t, m.RememberSearch(ctx, mirror.Search{Hashtag: "산책", SearchedAt: 100}))
	require.NoError(t, m.RememberSearch(ctx, mirror.Search{StartDate: "2024-05-01", EndDate: "2024-05-31", SearchedAt: 200}))

	// Repeating the first search moves it to the head instead of duplicating.
	require.NoError(t, m.RememberSearch(ctx, mirror.Search{Hashtag: "산책", SearchedAt: 300}))

	searches, err = m.RecentSearches(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 2)
	assert.Equal(t, "산책", searches[0].Hashtag)
	assert.Equal(t, int64(300), searches[0].SearchedAt)
	assert.Equal(t, "2024-05-01", searches[1].StartDate)
}

func TestRememberSearch_CapsAtTen(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, m.RememberSearch(ctx, mirror.Search{
			Hashtag:    string(rune('a' + i)),
			SearchedAt: int64(i + 1),
		}))
	}

	searches, err := m.RecentSearches(ctx)
	require.NoError(t, err)
	require.Len(t, searches, 10)

	// Newest first, oldest five dropped.
	assert.Equal(t, string(rune('a'+14)), searches[0].Hashtag)
	assert.Equal(t, string(rune('a'+5)), searches[9].Hashtag)
}

func TestClearSearchHistory(t *testing.T) {
	m := setupMirror(t, 1<<20)
	ctx := context.Background()

	require.NoError(t, m.RememberSearch(ctx, mirror.Search{Hashtag: "커피", SearchedAt: 1}))
	require.NoError(t, m.ClearSearchHistory(ctx))

	searches, err := m.RecentSearches(ctx)
	require.NoError(t, err)
	assert.Empty(t, searches)
}
