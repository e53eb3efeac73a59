// Package mirror provides the size-bounded cache mirror of entry metadata.
//
// The mirror is the fast tier: a SQLite shadow of the entry store holding
// shrunk entries (photo payloads dropped, blurhash placeholders retained) so
// the first paint never waits on the durable store. It is bootstrap-only and
// never authoritative — on any disagreement the entry store wins.
package mirror

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite-backed cache mirror.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	// maxBytes is the byte budget across all mirrored payloads, mirroring
	// the localStorage quota the diary originally lived within.
	maxBytes int64
}

// Open creates the mirror database at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, maxBytes int, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Set connection pool to 1 writer (SQLite limitation).
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	// Run schema migration.
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{
		db:       db,
		logger:   logger,
		maxBytes: int64(maxBytes),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the shrunk form of an entry. The entry is shrunk here, not by
// the caller, so oversized payloads can never slip into the mirror.
// Fails with a mirror-capacity error when the write would push the mirror
// past its byte budget; the existing record for the id, if any, survives.
func (s *Store) Put(ctx context.Context, entry domain.Entry) error {
	if entry.ID == "" {
		return apperrors.Validation("entry id cannot be empty")
	}

	shrunk := entry.Shrink()
	payload, err := json.Marshal(shrunk)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %s: %w", entry.ID, err)
	}

	if s.maxBytes > 0 {
		var used int64
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(bytes), 0) FROM entries WHERE id != ?`, entry.ID,
		).Scan(&used)
		if err != nil {
			return fmt.Errorf("failed to read mirror usage: %w", err)
		}
		if used+int64(len(payload)) > s.maxBytes {
			return apperrors.MirrorCapacityf("mirror write of %d bytes exceeds budget (%d of %d used)",
				len(payload), used, s.maxBytes)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, payload, date, touched, bytes)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			date = excluded.date,
			touched = excluded.touched,
			bytes = excluded.bytes`,
		entry.ID, string(payload), entry.Date, entry.Touched, len(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to write mirror entry %s: %w", entry.ID, err)
	}
	return nil
}

// GetAll returns every mirrored entry, unordered. The result is always a
// subset of the truth: shrunk records, possibly stale, bootstrap-only.
func (s *Store) GetAll(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Defer close, nothing we can do about errors here

	entries := []domain.Entry{}
	for rows.Next() {
		var entryID, payload string
		if err := rows.Scan(&entryID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan mirror row: %w", err)
		}

		var entry domain.Entry
		if err := json.Unmarshal([]byte(payload), &entry); err != nil {
			// One corrupt row should not hide the rest.
			if s.logger != nil {
				s.logger.Warn("skipping corrupt mirror record", "id", entryID, "error", err)
			}
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mirror rows: %w", err)
	}

	return entries, nil
}

// Delete removes the mirrored record if present. Absent ids are a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mirror entry %s: %w", id, err)
	}
	return nil
}

// UsedBytes returns the total payload bytes currently mirrored.
func (s *Store) UsedBytes(ctx context.Context) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(bytes), 0) FROM entries`).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to read mirror usage: %w", err)
	}
	return used, nil
}

// MaxBytes returns the configured byte budget.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}
