package providers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/daybookapp/daybook-server/internal/config"
	"github.com/daybookapp/daybook-server/internal/logger"
	"github.com/daybookapp/daybook-server/internal/mirror"
	"github.com/daybookapp/daybook-server/internal/repository"
	"github.com/daybookapp/daybook-server/internal/sse"
	"github.com/daybookapp/daybook-server/internal/store"
	"github.com/daybookapp/daybook-server/internal/validation"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the durable entry store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the durable entry store. An unopenable database
// is not fatal: the store reports unavailable and the server runs
// read-only from the mirror.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "entries.db")
	db := store.New(store.Options{
		Path:          dbPath,
		MaxEntryBytes: cfg.Storage.MaxEntryBytes,
		Logger:        log.Logger,
	})

	if db.Available() {
		log.Info("Entry store opened", "path", dbPath)
	}

	return &StoreHandle{Store: db}, nil
}

// MirrorHandle wraps the cache mirror with shutdown capability.
type MirrorHandle struct {
	*mirror.Store
}

// Shutdown implements do.Shutdownable.
func (h *MirrorHandle) Shutdown() error {
	return h.Close()
}

// ProvideMirror provides the bounded metadata mirror.
func ProvideMirror(i do.Injector) (*MirrorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cfg.Storage.DataPath, "mirror.db")
	m, err := mirror.Open(dbPath, cfg.Storage.MirrorMaxBytes, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Mirror opened", "path", dbPath, "max_bytes", cfg.Storage.MirrorMaxBytes)

	return &MirrorHandle{Store: m}, nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideRepository provides the reconciling repository, loaded and wired
// to the SSE manager so every entry change reaches connected clients.
func ProvideRepository(i do.Injector) (*repository.Repository, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mirrorHandle := do.MustInvoke[*MirrorHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	repo := repository.New(storeHandle.Store, mirrorHandle.Store, validator, log.Logger)

	entries, err := repo.LoadAll(context.Background())
	if err != nil {
		return nil, err
	}
	log.Info("Diary loaded", "entries", len(entries), "durable", repo.StorageAvailable())

	repo.OnChange(sseHandle.EmitChange)

	return repo, nil
}
