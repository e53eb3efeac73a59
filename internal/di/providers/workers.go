package providers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/daybookapp/daybook-server/internal/config"
	"github.com/daybookapp/daybook-server/internal/logger"
	"github.com/daybookapp/daybook-server/internal/sse"
	"github.com/daybookapp/daybook-server/internal/watcher"
)

// ImportWatcherHandle wraps the photo import watcher with shutdown capability.
type ImportWatcherHandle struct {
	*watcher.ImportWatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ImportWatcherHandle) Shutdown() error {
	if h.ImportWatcher == nil {
		return nil
	}
	h.cancel()
	h.Stop()
	return nil
}

// ProvideImportWatcher provides the photo drop-folder watcher. Settled
// image files are announced to connected clients over SSE; the client
// decides whether to pull them into a draft. No import path configured
// means no watcher.
func ProvideImportWatcher(i do.Injector) (*ImportWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	if cfg.Import.Path == "" {
		log.Info("Photo import watcher disabled, no import path configured")
		return &ImportWatcherHandle{}, nil
	}

	if err := os.MkdirAll(cfg.Import.Path, 0o755); err != nil {
		return nil, err
	}

	w, err := watcher.New(cfg.Import.Path, func(path string) {
		sseHandle.Emit(sse.NewPhotoImportedEvent(filepath.Base(path)))
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	log.Info("Photo import watcher started", "path", cfg.Import.Path)

	return &ImportWatcherHandle{ImportWatcher: w, cancel: cancel}, nil
}
