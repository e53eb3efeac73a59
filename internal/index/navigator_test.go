package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookapp/daybook-server/internal/domain"
)

func daySnapshot() []domain.Entry {
	return []domain.Entry{
		entry("ent-old", "2024-05-01", 100),
		entry("ent-mid", "2024-05-01", 200),
		entry("ent-new", "2024-05-01", 300),
		entry("ent-other", "2024-05-02", 400),
	}
}

func TestNavigator_SelectDate(t *testing.T) {
	var nav DayNavigator
	nav.SelectDate(daySnapshot(), "2024-05-01")

	assert.Equal(t, "2024-05-01", nav.Date())
	assert.Equal(t, 3, nav.Len())
	assert.Equal(t, 0, nav.Index())

	current, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "ent-new", current.ID)
}

func TestNavigator_EmptyDay(t *testing.T) {
	var nav DayNavigator
	nav.SelectDate(daySnapshot(), "2024-05-09")

	_, ok := nav.Current()
	assert.False(t, ok)
	assert.False(t, nav.CanPrev())
	assert.False(t, nav.CanNext())
	assert.False(t, nav.Prev())
	assert.False(t, nav.Next())
}

func TestNavigator_WalksEveryEntry(t *testing.T) {
	var nav DayNavigator
	nav.SelectDate(daySnapshot(), "2024-05-01")

	// Newest first, Next walks toward older saves.
	want := []string{"ent-new", "ent-mid", "ent-old"}
	got := []string{}
	for {
		current, ok := nav.Current()
		require.True(t, ok)
		got = append(got, current.ID)
		if !nav.Next() {
			break
		}
	}
	assert.Equal(t, want, got)
}

func TestNavigator_Boundaries(t *testing.T) {
	var nav DayNavigator
	nav.SelectDate(daySnapshot(), "2024-05-01")

	// At the newest entry only next is available.
	assert.False(t, nav.CanPrev())
	assert.True(t, nav.CanNext())
	assert.False(t, nav.Prev())
	assert.Equal(t, 0, nav.Index())

	require.True(t, nav.Next())
	assert.True(t, nav.CanPrev())
	assert.True(t, nav.CanNext())

	require.True(t, nav.Next())
	assert.Equal(t, 2, nav.Index())
	assert.True(t, nav.CanPrev())
	assert.False(t, nav.CanNext())
	assert.False(t, nav.Next())
	assert.Equal(t, 2, nav.Index())
}

func TestNavigator_RefreshAfterDelete(t *testing.T) {
	snapshot := daySnapshot()

	var nav DayNavigator
	nav.SelectDate(snapshot, "2024-05-01")
	require.True(t, nav.Next())

	// Only one entry survives the delete.
	nav.Refresh(snapshot[:1])
	assert.Equal(t, 1, nav.Len())
	assert.Equal(t, 0, nav.Index())
	current, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "ent-old", current.ID)

	// Day emptied out entirely.
	nav.Refresh(nil)
	_, ok = nav.Current()
	assert.False(t, ok)
	assert.Equal(t, "2024-05-01", nav.Date())
}

func TestNavigator_RefreshKeepsCursorWhenDayUnchanged(t *testing.T) {
	snapshot := daySnapshot()

	var nav DayNavigator
	nav.SelectDate(snapshot, "2024-05-01")
	require.True(t, nav.Next())

	// A refresh against an unchanged day must not move the cursor.
	nav.Refresh(snapshot)
	assert.Equal(t, 1, nav.Index())
	current, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "ent-mid", current.ID)
}

func TestNavigator_RefreshWithoutSelection(t *testing.T) {
	var nav DayNavigator
	nav.Refresh(daySnapshot())

	_, ok := nav.Current()
	assert.False(t, ok)
	assert.Zero(t, nav.Len())
}

func TestNavigator_Clear(t *testing.T) {
	var nav DayNavigator
	nav.SelectDate(daySnapshot(), "2024-05-01")
	nav.Clear()

	assert.Empty(t, nav.Date())
	assert.Zero(t, nav.Len())
	_, ok := nav.Current()
	assert.False(t, ok)
}
