// Package index derives the calendar, recency, and map views from the
// repository's current entry snapshot.
//
// Everything here is a pure function of the snapshot it is handed: the
// package stores nothing and never mutates its input, so views recomputed
// twice without an intervening mutation are identical.
package index

import (
	"sort"
	"strconv"
	"strings"

	"github.com/daybookapp/daybook-server/internal/domain"
)

// RecentLimit caps the recent-entries list.
const RecentLimit = 50

// MarkedDays returns the days of (year, month) that have at least one
// entry. The date string is split literally, never run through a
// timezone-sensitive parse, so a diary day can't shift across midnight.
func MarkedDays(entries []domain.Entry, year, month int) map[int]bool {
	marked := make(map[int]bool)
	for _, e := range entries {
		y, m, d, ok := splitDate(e.Date)
		if ok && y == year && m == month {
			marked[d] = true
		}
	}
	return marked
}

// splitDate parses "YYYY-MM-DD" by field position.
func splitDate(date string) (year, month, day int, ok bool) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	var err error
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if day, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// SortedByRecency returns a copy of entries ordered by save time
// descending. Ties are broken by id descending so the ordering is
// deterministic.
func SortedByRecency(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, len(entries))
	copy(out, entries)
	sortByRecency(out)
	return out
}

// RecentList returns the entries ordered by save time descending, capped
// at RecentLimit.
func RecentList(entries []domain.Entry) []domain.Entry {
	out := SortedByRecency(entries)
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	return out
}

// EntriesForDate returns the entries for one diary day, most recently
// saved first.
func EntriesForDate(entries []domain.Entry, date string) []domain.Entry {
	out := []domain.Entry{}
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	sortByRecency(out)
	return out
}

// sortByRecency orders by Touched descending, id descending on ties.
func sortByRecency(entries []domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Touched != entries[j].Touched {
			return entries[i].Touched > entries[j].Touched
		}
		return entries[i].ID > entries[j].ID
	})
}
