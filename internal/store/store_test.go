package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
	"github.com/daybookapp/daybook-server/internal/store"
)

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "entry-store-test-*")
	require.NoError(t, err)

	s := store.New(store.Options{
		Path:          filepath.Join(tmpDir, "entries.db"),
		MaxEntryBytes: 8 << 20,
	})
	require.True(t, s.Available())

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func testEntry(id string) domain.Entry {
	return domain.Entry{
		ID:      id,
		Title:   "바다 여행",
		Body:    "a good day #바다",
		Date:    "2024-05-01",
		TS:      domain.DayStart("2024-05-01"),
		Touched: 1714500000000,
	}
}

func TestPut_And_GetAll(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, s.Put(ctx, testEntry("ent-1")))
	require.NoError(t, s.Put(ctx, testEntry("ent-2")))

	entries, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	ids := map[string]bool{}
	for _, e := range entries {
		ids[e.ID] = true
	}
	assert.True(t, ids["ent-1"])
	assert.True(t, ids["ent-2"])
}

func TestPut_ReplacesExisting(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first := testEntry("ent-1")
	require.NoError(t, s.Put(ctx, first))

	second := first
	second.Body = "edited body"
	second.Touched = first.Touched + 1000
	require.NoError(t, s.Put(ctx, second))

	entries, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1, "same id must never produce two records")
	assert.Equal(t, "edited body", entries[0].Body)
	assert.Equal(t, second.Touched, entries[0].Touched)
}

func TestPut_EmptyID(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	err := s.Put(context.Background(), domain.Entry{Body: "x", Date: "2024-05-01"})
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestPut_OversizedEntry(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "entry-store-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Test cleanup

	s := store.New(store.Options{
		Path:          filepath.Join(tmpDir, "entries.db"),
		MaxEntryBytes: 1024,
	})
	defer s.Close() //nolint:errcheck // Test cleanup

	entry := testEntry("ent-big")
	entry.Photos = []string{string(make([]byte, 4096))}

	err = s.Put(context.Background(), entry)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrStorageExhausted))

	// Prior state untouched: nothing was written.
	entries, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetAll_EmptyStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	entries, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, testEntry("ent-1")))

	got, err := s.Get(ctx, "ent-1")
	require.NoError(t, err)
	assert.Equal(t, "바다 여행", got.Title)

	_, err = s.Get(ctx, "ent-missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestDelete_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, testEntry("ent-1")))

	require.NoError(t, s.Delete(ctx, "ent-1"))
	// Second delete of the same id, and a delete of an id that never
	// existed, are both no-ops.
	require.NoError(t, s.Delete(ctx, "ent-1"))
	require.NoError(t, s.Delete(ctx, "ent-never"))

	entries, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCount(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.Put(ctx, testEntry("ent-1")))
	require.NoError(t, s.Put(ctx, testEntry("ent-2")))

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDisabledStore_DegradesToNoops(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "entry-store-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Test cleanup

	// A file where the directory should be makes badger fail to open.
	blocker := filepath.Join(tmpDir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := store.New(store.Options{Path: filepath.Join(blocker, "db")})
	assert.False(t, s.Available())

	ctx := context.Background()

	// Every operation degrades instead of failing.
	assert.NoError(t, s.Put(ctx, testEntry("ent-1")))
	assert.NoError(t, s.Delete(ctx, "ent-1"))

	entries, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.NoError(t, s.Close())
}

func TestPersistsAcrossReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "entry-store-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Test cleanup

	dbPath := filepath.Join(tmpDir, "entries.db")
	ctx := context.Background()

	s := store.New(store.Options{Path: dbPath, MaxEntryBytes: 8 << 20})
	require.NoError(t, s.Put(ctx, testEntry("ent-1")))
	require.NoError(t, s.Close())

	reopened := store.New(store.Options{Path: dbPath, MaxEntryBytes: 8 << 20})
	defer reopened.Close() //nolint:errcheck // Test cleanup

	entries, err := reopened.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ent-1", entries[0].ID)
}
