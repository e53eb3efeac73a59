package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxSearchHistory caps the recent-search list on the map page.
const maxSearchHistory = 10

// Search is one remembered map search: a date range, a hashtag, or both.
type Search struct {
	ID         string `json:"id"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
	Hashtag    string `json:"hashtag,omitempty"`
	SearchedAt int64  `json:"searchedAt"`
}

// IsEmpty reports whether the search carries no filter at all.
func (q Search) IsEmpty() bool {
	return q.StartDate == "" && q.EndDate == "" && q.Hashtag == ""
}

// RememberSearch records a map search at the head of the history list.
// An identical earlier search (same range and hashtag) is replaced rather
// than duplicated, and the list is trimmed to the newest 10. Empty searches
// are ignored.
func (s *Store) RememberSearch(ctx context.Context, search Search) error {
	if search.IsEmpty() {
		return nil
	}

	search.ID = uuid.NewString()
	if search.SearchedAt == 0 {
		search.SearchedAt = time.Now().UnixMilli()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin search history tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.ExecContext(ctx,
		`DELETE FROM search_history WHERE start_date = ? AND end_date = ? AND hashtag = ?`,
		search.StartDate, search.EndDate, search.Hashtag,
	)
	if err != nil {
		return fmt.Errorf("failed to dedup search history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO search_history (id, start_date, end_date, hashtag, searched_at)
		 VALUES (?, ?, ?, ?, ?)`,
		search.ID, search.StartDate, search.EndDate, search.Hashtag, search.SearchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM search_history WHERE id NOT IN (
			SELECT id FROM search_history ORDER BY searched_at DESC, id LIMIT ?
		)`, maxSearchHistory,
	)
	if err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	return tx.Commit()
}

// RecentSearches returns the remembered searches, newest first.
func (s *Store) RecentSearches(ctx context.Context) ([]Search, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, hashtag, searched_at
		FROM search_history
		ORDER BY searched_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Defer close, nothing we can do about errors here

	searches := []Search{}
	for rows.Next() {
		var q Search
		if err := rows.Scan(&q.ID, &q.StartDate, &q.EndDate, &q.Hashtag, &q.SearchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search history row: %w", err)
		}
		searches = append(searches, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search history rows: %w", err)
	}

	return searches, nil
}

// ClearSearchHistory wipes the remembered searches.
func (s *Store) ClearSearchHistory(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_history`); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}
