package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_TitleDefaults(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"empty gets placeholder", "", DefaultTitle},
		{"whitespace gets placeholder", "   ", DefaultTitle},
		{"kept as-is", "바다 여행", "바다 여행"},
		{"truncated to 20 runes", strings.Repeat("가", 25), strings.Repeat("가", 20)},
		{"ascii truncated", strings.Repeat("a", 30), strings.Repeat("a", 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Title: tt.title, Body: "hello"}
			e.Normalize()
			assert.Equal(t, tt.expected, e.Title)
		})
	}
}

func TestNormalize_SyncsCoverPhoto(t *testing.T) {
	e := Entry{
		Body:     "x",
		Photos:   []string{"data:a", "data:b", "data:c"},
		RepIndex: 1,
	}
	e.Normalize()
	assert.Equal(t, "data:b", e.Photo)

	e.Photos = nil
	e.Normalize()
	assert.Empty(t, e.Photo)
}

func TestClampRepIndex(t *testing.T) {
	tests := []struct {
		name     string
		photos   int
		repIndex int
		expected int
	}{
		{"negative clamps to zero", 3, -1, 0},
		{"past end clamps to last", 3, 5, 2},
		{"in range untouched", 3, 1, 1},
		{"no photos forces zero", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{
				Photos:   make([]string, tt.photos),
				RepIndex: tt.repIndex,
			}
			e.ClampRepIndex()
			assert.Equal(t, tt.expected, e.RepIndex)
		})
	}
}

func TestShrink_DropsPayloadsKeepsMetadata(t *testing.T) {
	e := Entry{
		ID:       "ent-1",
		Title:    "저녁 산책",
		Body:     "good day #산책",
		Photo:    "data:cover",
		Photos:   []string{"data:a", "data:b"},
		RepIndex: 1,
		PhotoItems: []PhotoItem{
			{DataURL: "data:a", Name: "a.jpg", ShotAt: 100, Blurhash: "LKO2?U%2Tw=w"},
			{DataURL: "data:b", Name: "b.jpg", ShotAt: 200, GPS: &GPS{Lat: 37.5, Lng: 127.0}},
		},
		Date:    "2024-05-01",
		Touched: 1714500000000,
	}

	shrunk := e.Shrink()

	assert.Empty(t, shrunk.Photo)
	assert.Empty(t, shrunk.Photos)
	assert.Len(t, shrunk.PhotoItems, 2)
	for _, item := range shrunk.PhotoItems {
		assert.Empty(t, item.DataURL)
	}
	assert.Equal(t, "a.jpg", shrunk.PhotoItems[0].Name)
	assert.Equal(t, "LKO2?U%2Tw=w", shrunk.PhotoItems[0].Blurhash)
	assert.Equal(t, 37.5, shrunk.PhotoItems[1].GPS.Lat)

	// Everything else survives.
	assert.Equal(t, e.ID, shrunk.ID)
	assert.Equal(t, e.Title, shrunk.Title)
	assert.Equal(t, e.Body, shrunk.Body)
	assert.Equal(t, e.RepIndex, shrunk.RepIndex)
	assert.Equal(t, e.Date, shrunk.Date)
	assert.Equal(t, e.Touched, shrunk.Touched)

	// Original must be untouched.
	assert.Equal(t, "data:cover", e.Photo)
	assert.Equal(t, "data:a", e.PhotoItems[0].DataURL)
}

func TestHashtags(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{"none", "plain text", nil},
		{"single", "walked around #seoul today", []string{"seoul"}},
		{"hangul", "오늘은 #산책 그리고 #커피", []string{"산책", "커피"}},
		{"lowercased", "#Seoul #SEOUL", []string{"seoul"}},
		{"dedup keeps first-seen order", "#b #a #b", []string{"b", "a"}},
		{"multiple hashes", "##double", []string{"double"}},
		{"underscore and digits", "#day_1", []string{"day_1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Body: tt.body}
			assert.Equal(t, tt.expected, e.Hashtags())
		})
	}
}

func TestHasHashtag(t *testing.T) {
	e := Entry{Body: "저녁 #산책 #Seoul"}

	assert.True(t, e.HasHashtag("산책"))
	assert.True(t, e.HasHashtag("#산책"))
	assert.True(t, e.HasHashtag("seoul"))
	assert.True(t, e.HasHashtag("SEOUL"))
	assert.False(t, e.HasHashtag("커피"))
}

func TestDayStart(t *testing.T) {
	ms := DayStart("2024-05-01")
	parsed := time.UnixMilli(ms)

	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, time.May, parsed.Month())
	assert.Equal(t, 1, parsed.Day())
	assert.Equal(t, 0, parsed.Hour())

	assert.Zero(t, DayStart("not-a-date"))
}
