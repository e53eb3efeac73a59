// Package watcher monitors the photo import folder so freshly dropped
// images can be offered for one-tap attachment.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is called once per settled image file, with its full path.
type Handler func(path string)

// imageExtensions are the file types the import folder accepts.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// ignorePatterns filters editor droppings and partial downloads.
var ignorePatterns = []string{".DS_Store", "*.tmp", "*.temp", "*.part", "Thumbs.db"}

// pendingFile tracks a file that may still be copying in.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// ImportWatcher watches one folder with fsnotify and debounces writes: a
// file is reported only after its size and mtime stop changing, so a
// slow copy from a phone does not fire halfway through.
type ImportWatcher struct {
	path        string
	handler     Handler
	logger      *slog.Logger
	settleDelay time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingFile

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a watcher for the given import folder. The folder must
// already exist.
func New(path string, handler Handler, logger *slog.Logger) (*ImportWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat import path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import path %s is not a directory", path)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close() //nolint:errcheck // Already failing
		return nil, fmt.Errorf("watch import path: %w", err)
	}

	return &ImportWatcher{
		path:        path,
		handler:     handler,
		logger:      logger,
		settleDelay: 500 * time.Millisecond,
		watcher:     fsWatcher,
		pending:     make(map[string]*pendingFile),
		done:        make(chan struct{}),
	}, nil
}

// Start processes events until the context is canceled.
func (w *ImportWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	w.logger.Info("Photo import watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Import watcher error", "error", err)
		}
	}
}

// Stop tears the watcher down and cancels pending timers.
func (w *ImportWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, pending := range w.pending {
			pending.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		w.watcher.Close() //nolint:errcheck // Shutdown cleanup
		w.wg.Wait()
	})
}

func (w *ImportWatcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if shouldIgnore(path) || !isImage(path) {
		return
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.startSettling(path)
	}
}

// startSettling begins or restarts the settle window for a file.
func (w *ImportWatcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(w.pending, path)
		return
	}

	pending := &pendingFile{
		size:    info.Size(),
		modTime: info.ModTime(),
	}
	pending.timer = time.AfterFunc(w.settleDelay, func() {
		w.checkSettled(path)
	})
	w.pending[path] = pending
}

// checkSettled reports the file if it stopped changing, otherwise waits
// another settle window.
func (w *ImportWatcher) checkSettled(path string) {
	w.mu.Lock()

	pending, exists := w.pending[path]
	if !exists {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// File vanished before settling.
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	if info.Size() != pending.size || !info.ModTime().Equal(pending.modTime) {
		// Still changing, restart timer.
		pending.size = info.Size()
		pending.modTime = info.ModTime()
		pending.timer = time.AfterFunc(w.settleDelay, func() {
			w.checkSettled(path)
		})
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	w.mu.Unlock()

	w.logger.Info("Photo imported", "file", filepath.Base(path), "bytes", info.Size())
	if w.handler != nil {
		w.handler(path)
	}
}

func (w *ImportWatcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pending, exists := w.pending[path]; exists {
		pending.timer.Stop()
		delete(w.pending, path)
	}
}

func isImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	for _, pattern := range ignorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
