package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) waitFor(t *testing.T, count int, timeout time.Duration) []string {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if paths := r.snapshot(); len(paths) >= count {
			return paths
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected %d imported files, got %v", count, r.snapshot())
	return nil
}

func setupWatcher(t *testing.T) (string, *recorder) {
	t.Helper()

	dir := t.TempDir()
	rec := &recorder{}

	w, err := New(dir, rec.handle, nil)
	require.NoError(t, err)
	w.settleDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})

	return dir, rec
}

func TestNew_RequiresExistingDirectory(t *testing.T) {
	_, err := New("/definitely/not/here", nil, nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(file, nil, nil)
	assert.Error(t, err)
}

func TestImportWatcher_ReportsSettledImages(t *testing.T) {
	dir, rec := setupWatcher(t)

	target := filepath.Join(dir, "IMG_2041.jpg")
	require.NoError(t, os.WriteFile(target, []byte("jpeg bytes"), 0o644))

	paths := rec.waitFor(t, 1, 3*time.Second)
	assert.Equal(t, target, paths[0])
}

func TestImportWatcher_IgnoresNonImages(t *testing.T) {
	dir, rec := setupWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.jpg"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.jpg.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.png"), []byte("png bytes"), 0o644))

	paths := rec.waitFor(t, 1, 3*time.Second)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "real.png"), paths[0])
}

func TestImportWatcher_DebouncesSlowCopies(t *testing.T) {
	dir, rec := setupWatcher(t)

	target := filepath.Join(dir, "slow.jpg")
	f, err := os.Create(target)
	require.NoError(t, err)

	// Drip the file in over several settle windows.
	for i := 0; i < 3; i++ {
		_, err = f.Write([]byte("chunk"))
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		time.Sleep(30 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	paths := rec.waitFor(t, 1, 3*time.Second)
	assert.Equal(t, []string{target}, paths)
}
