package index

import "github.com/daybookapp/daybook-server/internal/domain"

// DayNavigator is the cursor over one selected diary day's entries.
//
// Two states exist: no selection, and "at entry i" of the selected day's
// list. Index 0 is the most recently saved entry; Prev moves toward more
// recent, Next toward older, both clamped at the boundaries.
type DayNavigator struct {
	date     string
	entries  []domain.Entry
	index    int
	selected bool
}

// SelectDate points the navigator at a day. With entries present the cursor
// lands on the newest one; an empty day clears the selection.
func (n *DayNavigator) SelectDate(snapshot []domain.Entry, date string) {
	n.date = date
	n.entries = EntriesForDate(snapshot, date)
	n.index = 0
	n.selected = len(n.entries) > 0
}

// Refresh recomputes the day's list from a fresh snapshot, e.g. after a
// save or delete. While the day's entry sequence is unchanged the cursor
// stays put; a changed sequence resets it to the newest entry, and the
// selection clears when the day emptied out.
func (n *DayNavigator) Refresh(snapshot []domain.Entry) {
	if n.date == "" {
		return
	}
	fresh := EntriesForDate(snapshot, n.date)
	if !sameSequence(n.entries, fresh) {
		n.index = 0
	}
	n.entries = fresh
	n.selected = len(fresh) > 0
}

// sameSequence reports whether both lists hold the same entry ids in the
// same order.
func sameSequence(a, b []domain.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

// Clear drops the selection, e.g. when the composer starts a new entry.
func (n *DayNavigator) Clear() {
	n.date = ""
	n.entries = nil
	n.index = 0
	n.selected = false
}

// Current returns the entry under the cursor.
func (n *DayNavigator) Current() (domain.Entry, bool) {
	if !n.selected {
		return domain.Entry{}, false
	}
	return n.entries[n.index], true
}

// Date returns the selected day, empty when nothing is selected.
func (n *DayNavigator) Date() string {
	return n.date
}

// Len returns the number of entries on the selected day.
func (n *DayNavigator) Len() int {
	return len(n.entries)
}

// Index returns the cursor position.
func (n *DayNavigator) Index() int {
	return n.index
}

// CanPrev reports whether a more recent entry exists. The prev control is
// hidden exactly when this is false.
func (n *DayNavigator) CanPrev() bool {
	return n.selected && n.index > 0
}

// CanNext reports whether an older entry exists. The next control is
// hidden exactly when this is false.
func (n *DayNavigator) CanNext() bool {
	return n.selected && n.index < len(n.entries)-1
}

// Prev moves toward the more recent entry. No-op at the boundary.
func (n *DayNavigator) Prev() bool {
	if !n.CanPrev() {
		return false
	}
	n.index--
	return true
}

// Next moves toward the older entry. No-op at the boundary.
func (n *DayNavigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.index++
	return true
}
