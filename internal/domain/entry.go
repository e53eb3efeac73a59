// Package domain contains the core business entities and domain logic for the Daybook photo diary.
package domain

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxPhotos is the hard cap on photos attached to a single entry.
	MaxPhotos = 5

	// TitleMaxRunes is the length the title gets truncated to at save time.
	TitleMaxRunes = 20

	// DefaultTitle is used when the user saves an entry without a title.
	DefaultTitle = "제목 없음"
)

// Entry is the sole persisted entity: one diary record for one calendar day.
// Multiple entries may share a Date; Touched orders them.
type Entry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body" validate:"required"`

	// Photo is the inline payload of the representative photo, kept
	// denormalized so summary views can paint without touching Photos.
	Photo string `json:"photo,omitempty"`
	// Photos holds the inline image payloads, parallel to PhotoItems.
	Photos []string `json:"photos"`
	// RepIndex designates the representative photo.
	// Invariant: 0 <= RepIndex < max(1, len(Photos)).
	RepIndex int `json:"repIndex"`
	// PhotoItems carries per-photo metadata, parallel to Photos and sorted
	// ascending by ShotAt whenever photos are attached.
	PhotoItems []PhotoItem `json:"photoItems,omitempty"`

	// Date is the diary day the entry belongs to, "YYYY-MM-DD". The selected
	// calendar day, not necessarily the day the entry was written.
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	// TS is the epoch-ms snapshot of Date at start of day. Legacy ordering.
	TS int64 `json:"ts"`
	// Touched is the epoch-ms of the actual save action and the authoritative
	// recency ordering across the whole diary.
	Touched int64 `json:"tn"`

	// Optional fields some records carry.
	Notes    string `json:"notes,omitempty"`
	Tone     string `json:"tone,omitempty"`
	ExifDate string `json:"exifDate,omitempty"`
}

// PhotoItem is the metadata record for one attached photo.
type PhotoItem struct {
	// DataURL is the inline image payload (data: URL).
	DataURL string `json:"dataURL"`
	// Name is the original filename of the upload.
	Name string `json:"name,omitempty"`
	// ShotAt is the capture time in epoch-ms, from image metadata when
	// available, else the file's modified time, else the attach time.
	ShotAt int64 `json:"shotAt"`
	// GPS is the capture location, nil when the photo carries none.
	GPS *GPS `json:"gps,omitempty"`
	// Blurhash is a compact placeholder string for the photo. It survives
	// Shrink, so mirror consumers can paint something photo-shaped.
	Blurhash string `json:"blurhash,omitempty"`
}

// GPS is a capture location in decimal degrees.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// hashtagPattern matches "#" runs followed by word or Hangul characters.
var hashtagPattern = regexp.MustCompile(`#+([\p{L}\p{N}_가-힣]+)`)

// Helper Methods.

// Normalize brings an entry into its canonical saved form: title truncated
// and defaulted, representative index clamped, Photo synced to Photos.
// Call this at the repository boundary before every write.
func (e *Entry) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		e.Title = DefaultTitle
	}
	if runes := []rune(e.Title); len(runes) > TitleMaxRunes {
		e.Title = string(runes[:TitleMaxRunes])
	}

	e.ClampRepIndex()

	if len(e.Photos) > 0 {
		e.Photo = e.Photos[e.RepIndex]
	} else {
		e.Photo = ""
	}
}

// ClampRepIndex forces RepIndex back into 0 <= RepIndex < max(1, len(Photos)).
func (e *Entry) ClampRepIndex() {
	if e.RepIndex < 0 {
		e.RepIndex = 0
	}
	if max := len(e.Photos) - 1; max >= 0 && e.RepIndex > max {
		e.RepIndex = max
	}
	if len(e.Photos) == 0 {
		e.RepIndex = 0
	}
}

// Shrink returns a copy with the binary photo payloads dropped, keeping all
// other fields. This is the form the cache mirror stores so its size stays
// bounded independent of photo count.
func (e Entry) Shrink() Entry {
	shrunk := e
	shrunk.Photo = ""
	shrunk.Photos = []string{}
	items := make([]PhotoItem, len(e.PhotoItems))
	for i, item := range e.PhotoItems {
		item.DataURL = ""
		items[i] = item
	}
	shrunk.PhotoItems = items
	return shrunk
}

// Hashtags extracts the distinct hashtags from the body, lowercased and
// NFC-normalized, in order of first appearance. The leading "#" is stripped.
func (e Entry) Hashtags() []string {
	matches := hashtagPattern.FindAllStringSubmatch(e.Body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(norm.NFC.String(m[1]))
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasHashtag reports whether the body contains the given tag
// (case-insensitive, leading "#" optional).
func (e Entry) HasHashtag(tag string) bool {
	tag = strings.ToLower(norm.NFC.String(strings.TrimLeft(tag, "#")))
	for _, t := range e.Hashtags() {
		if t == tag {
			return true
		}
	}
	return false
}

// DayStart returns the epoch-ms start of the given "YYYY-MM-DD" day in the
// local timezone, or 0 when the date does not parse.
func DayStart(date string) int64 {
	t, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
