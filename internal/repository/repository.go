// Package repository reconciles the durable entry store with the cache
// mirror and exposes the single current entry set every view reads.
//
// The repository owns save/delete sequencing: writes go to the durable
// store first, the mirror is updated best-effort afterwards, and the
// in-memory snapshot is patched before any listener is told about the
// change. Views therefore never observe a half-written entry.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
	"github.com/daybookapp/daybook-server/internal/id"
	"github.com/daybookapp/daybook-server/internal/media/images"
	"github.com/daybookapp/daybook-server/internal/mirror"
	"github.com/daybookapp/daybook-server/internal/store"
	"github.com/daybookapp/daybook-server/internal/validation"
)

// ChangeKind is the operation a change notification reports.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeLoaded  ChangeKind = "loaded"
)

// Change is delivered to listeners after a successful mutation or load.
type Change struct {
	Kind    ChangeKind
	EntryID string // empty for loads
}

// Listener receives change notifications. Listeners run synchronously on
// the mutating goroutine after the snapshot is updated; they may read the
// repository but must not mutate it.
type Listener func(Change)

// Repository is the reconciliation layer over the two storage tiers.
type Repository struct {
	store     *store.Store
	mirror    *mirror.Store
	validator *validation.Validator
	logger    *slog.Logger

	mu       sync.RWMutex
	snapshot map[string]domain.Entry

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int
}

// New creates a repository over the given tiers.
func New(entryStore *store.Store, cacheMirror *mirror.Store, validator *validation.Validator, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:     entryStore,
		mirror:    cacheMirror,
		validator: validator,
		logger:    logger,
		snapshot:  make(map[string]domain.Entry),
		listeners: make(map[int]Listener),
	}
}

// OnChange registers a listener for change notifications and returns a
// function that unregisters it.
func (r *Repository) OnChange(listener Listener) func() {
	r.listenerMu.Lock()
	defer r.listenerMu.Unlock()

	handle := r.nextID
	r.nextID++
	r.listeners[handle] = listener

	return func() {
		r.listenerMu.Lock()
		defer r.listenerMu.Unlock()
		delete(r.listeners, handle)
	}
}

func (r *Repository) notify(change Change) {
	r.listenerMu.Lock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.listenerMu.Unlock()

	for _, l := range listeners {
		l(change)
	}
}

// LoadAll reads the mirror first for a fast bootstrap set, then the durable
// store, and merges by id with the durable store always winning. The merged
// set becomes the new snapshot.
func (r *Repository) LoadAll(ctx context.Context) ([]domain.Entry, error) {
	merged := make(map[string]domain.Entry)

	if r.mirror != nil {
		cached, err := r.mirror.GetAll(ctx)
		if err != nil {
			// Mirror is bootstrap-only: a broken mirror degrades, never fails a load.
			r.logger.Warn("cache mirror read failed", "error", err)
		} else {
			for _, e := range cached {
				merged[e.ID] = e
			}
		}
	}

	durable, err := r.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	for _, e := range durable {
		merged[e.ID] = e
	}

	r.mu.Lock()
	r.snapshot = merged
	entries := snapshotSlice(merged)
	r.mu.Unlock()

	r.notify(Change{Kind: ChangeLoaded})
	return entries, nil
}

// Snapshot returns a copy of the current merged entry set, unordered.
func (r *Repository) Snapshot() []domain.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshotSlice(r.snapshot)
}

// Get returns one entry from the current snapshot.
func (r *Repository) Get(entryID string) (domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.snapshot[entryID]
	if !ok {
		return domain.Entry{}, apperrors.NotFoundf("entry %s not found", entryID)
	}
	return entry, nil
}

// Save validates and persists an entry: durable store first, with the
// compression ladder on storage exhaustion, then the mirror best-effort.
// A draft without an id gets a fresh one. Returns the entry as persisted.
func (r *Repository) Save(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if entry.ID == "" {
		entry.ID = id.NewEntry()
	}
	entry.Normalize()

	if err := r.validator.Validate(entry); err != nil {
		return domain.Entry{}, err
	}
	if len(entry.PhotoItems) > 0 && len(entry.PhotoItems) != len(entry.Photos) {
		return domain.Entry{}, apperrors.Validationf("photoItems length %d does not match photos length %d",
			len(entry.PhotoItems), len(entry.Photos))
	}
	if len(entry.Photos) > domain.MaxPhotos {
		return domain.Entry{}, apperrors.Validationf("at most %d photos per entry", domain.MaxPhotos)
	}

	r.fillBlurhashes(&entry)

	persisted, err := r.putWithLadder(ctx, entry)
	if err != nil {
		return domain.Entry{}, err
	}

	// Mirror write is best-effort once the durable write landed: the store
	// is authoritative, so a full mirror is a warning, not a failure. With
	// the store unavailable the mirror is the only tier left, and its
	// failure is the save failing.
	if r.mirror != nil {
		if err := r.mirror.Put(ctx, persisted); err != nil {
			if !r.store.Available() {
				if apperrors.Is(err, apperrors.ErrMirrorCapacity) {
					return domain.Entry{}, apperrors.StorageExhaustedf(
						"entry %s does not fit the mirror and no durable store is available",
						persisted.ID,
					).WithCause(err)
				}
				return domain.Entry{}, err
			}
			r.logger.Warn("cache mirror write failed after durable save",
				"entry_id", persisted.ID,
				"error", err,
			)
		}
	}

	kind := ChangeCreated
	r.mu.Lock()
	if _, existed := r.snapshot[persisted.ID]; existed {
		kind = ChangeUpdated
	}
	r.snapshot[persisted.ID] = persisted
	r.mu.Unlock()

	r.notify(Change{Kind: kind, EntryID: persisted.ID})
	return persisted, nil
}

// putWithLadder writes to the durable store, walking the downscale ladder
// when the payload does not fit. Either some rung fits and that entry is
// returned, or the prior record is left untouched and the exhaustion
// error surfaces.
func (r *Repository) putWithLadder(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	err := r.store.Put(ctx, entry)
	if err == nil {
		return entry, nil
	}
	if !apperrors.Is(err, apperrors.ErrStorageExhausted) {
		return domain.Entry{}, err
	}
	if len(entry.Photos) == 0 {
		return domain.Entry{}, err
	}

	for _, preset := range images.Ladder {
		compressed, compressErr := recompress(entry, preset)
		if compressErr != nil {
			r.logger.Warn("compression rung failed",
				"entry_id", entry.ID,
				"max_dimension", preset.MaxDimension,
				"error", compressErr,
			)
			continue
		}

		err = r.store.Put(ctx, compressed)
		if err == nil {
			r.logger.Info("entry saved after compression",
				"entry_id", entry.ID,
				"max_dimension", preset.MaxDimension,
				"quality", preset.Quality,
			)
			return compressed, nil
		}
		if !apperrors.Is(err, apperrors.ErrStorageExhausted) {
			return domain.Entry{}, err
		}
	}

	return domain.Entry{}, apperrors.StorageExhaustedf(
		"entry %s does not fit durable storage after %d compression attempts",
		entry.ID, len(images.Ladder),
	).WithCause(err)
}

// recompress re-encodes every photo payload at the given preset, keeping
// the parallel arrays and the cover in sync.
func recompress(entry domain.Entry, preset images.Preset) (domain.Entry, error) {
	out := entry
	out.Photos = make([]string, len(entry.Photos))
	out.PhotoItems = make([]domain.PhotoItem, len(entry.PhotoItems))
	copy(out.PhotoItems, entry.PhotoItems)

	for i, payload := range entry.Photos {
		smaller, err := images.DownscaleDataURL(payload, preset)
		if err != nil {
			return domain.Entry{}, fmt.Errorf("recompress photo %d: %w", i, err)
		}
		out.Photos[i] = smaller
		if i < len(out.PhotoItems) {
			out.PhotoItems[i].DataURL = smaller
		}
	}

	out.Normalize()
	return out, nil
}

// fillBlurhashes computes placeholder hashes for photos that lack one.
// Failures are ignored: a missing placeholder only costs paint quality.
func (r *Repository) fillBlurhashes(entry *domain.Entry) {
	for i := range entry.PhotoItems {
		item := &entry.PhotoItems[i]
		if item.Blurhash != "" || item.DataURL == "" {
			continue
		}
		hash, err := images.ComputeBlurHash(item.DataURL)
		if err != nil {
			continue
		}
		item.Blurhash = hash
	}
}

// Delete removes the entry from both tiers. Both sides are idempotent:
// deleting an id neither tier knows is a no-op, not an error.
func (r *Repository) Delete(ctx context.Context, entryID string) error {
	if err := r.store.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if r.mirror != nil {
		if err := r.mirror.Delete(ctx, entryID); err != nil {
			r.logger.Warn("cache mirror delete failed",
				"entry_id", entryID,
				"error", err,
			)
		}
	}

	r.mu.Lock()
	_, existed := r.snapshot[entryID]
	delete(r.snapshot, entryID)
	r.mu.Unlock()

	if existed {
		r.notify(Change{Kind: ChangeDeleted, EntryID: entryID})
	}
	return nil
}

// Stats summarizes the current snapshot for the footer counters.
type Stats struct {
	Total      int `json:"total"`
	ThisMonth  int `json:"thisMonth"`
	WithPhotos int `json:"withPhotos"`
}

// Stats counts entries overall, in the given month ("YYYY-MM"), and with
// at least one photo.
func (r *Repository) Stats(month string) Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats Stats
	for _, e := range r.snapshot {
		stats.Total++
		if len(e.Date) >= 7 && e.Date[:7] == month {
			stats.ThisMonth++
		}
		if len(e.Photos) > 0 || len(e.PhotoItems) > 0 {
			stats.WithPhotos++
		}
	}
	return stats
}

// StorageAvailable reports whether the durable tier is persisting data.
func (r *Repository) StorageAvailable() bool {
	return r.store.Available()
}

func snapshotSlice(m map[string]domain.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	return out
}
