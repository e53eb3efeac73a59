// Package store provides the durable, keyed entry store backed by Badger.
//
// The store is the authoritative tier: it holds full entries including
// inline photo payloads. When the database cannot be opened the store runs
// disabled — every operation degrades to a no-op or an empty result — so a
// broken data directory never takes the whole application down.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
)

// Store wraps a Badger database holding full entry records.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// maxEntryBytes caps the encoded size of a single entry. Oversized
	// writes fail with a storage-exhausted error so the save path can run
	// its compression ladder before giving up.
	maxEntryBytes int
}

// Options configures a Store.
type Options struct {
	Path          string
	MaxEntryBytes int
	Logger        *slog.Logger
}

// New opens the entry database. When the database cannot be opened the
// returned store is disabled rather than nil: operations no-op, GetAll
// returns empty, and the failure is logged once as a warning.
func New(opts Options) *Store {
	badgerOpts := badger.DefaultOptions(opts.Path)
	badgerOpts.Logger = nil            // Disable Badger's internal logging
	badgerOpts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	badgerOpts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	store := &Store{
		logger:        opts.Logger,
		maxEntryBytes: opts.MaxEntryBytes,
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		if opts.Logger != nil {
			opts.Logger.Warn("entry database unavailable, running without durable storage",
				"path", opts.Path,
				"error", err,
			)
		}
		return store
	}

	store.db = db
	if opts.Logger != nil {
		opts.Logger.Info("entry database opened", "path", opts.Path)
	}
	return store
}

// Available reports whether the durable tier is actually persisting data.
func (s *Store) Available() bool {
	return s.db != nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("closing entry database")
	}
	return s.db.Close()
}

// Put inserts or fully replaces the record with entry.ID. There is no
// partial update: the new record atomically replaces the old one or the old
// one survives untouched. Idempotent for identical input.
func (s *Store) Put(ctx context.Context, entry domain.Entry) error {
	if s.db == nil {
		return nil
	}
	if entry.ID == "" {
		return apperrors.Validation("entry id cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", entry.ID, err)
	}

	if s.maxEntryBytes > 0 && len(data) > s.maxEntryBytes {
		return apperrors.StorageExhaustedf("entry %s is %d bytes, limit %d", entry.ID, len(data), s.maxEntryBytes)
	}

	key := entryKey(entry.ID)
	defer releaseKey(key)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		// Badger refuses values over its own limit; report it the same way
		// as our configured cap so callers can run the ladder.
		if errors.Is(err, badger.ErrTxnTooBig) {
			return apperrors.StorageExhaustedf("entry %s does not fit in a transaction", entry.ID).WithCause(err)
		}
		return fmt.Errorf("failed to write entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetAll returns every stored entry, unordered. An empty store yields an
// empty slice, never an error.
func (s *Store) GetAll(ctx context.Context) ([]domain.Entry, error) {
	entries := []domain.Entry{}
	if s.db == nil {
		return entries, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(entryPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry domain.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					// A single corrupt record should not hide the rest.
					if s.logger != nil {
						s.logger.Warn("skipping corrupt entry record",
							"key", string(item.Key()),
							"error", err,
						)
					}
					return nil
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}

// Get returns a single entry by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Entry, error) {
	var entry domain.Entry
	if s.db == nil {
		return entry, apperrors.NotFoundf("entry %s not found", id)
	}
	if err := ctx.Err(); err != nil {
		return entry, err
	}

	key := entryKey(id)
	defer releaseKey(key)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entry, apperrors.NotFoundf("entry %s not found", id)
	}
	if err != nil {
		return entry, fmt.Errorf("failed to read entry %s: %w", id, err)
	}
	return entry, nil
}

// Delete removes the record if present. Deleting an absent id is a no-op,
// not an error: deletes are idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := entryKey(id)
	defer releaseKey(key)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored entries without loading their values.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	prefix := []byte(entryPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}
