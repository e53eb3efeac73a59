// Package composer manages the transient edit buffer for one diary entry
// before it is committed to the repository.
package composer

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
	"github.com/daybookapp/daybook-server/internal/media/exif"
	"github.com/daybookapp/daybook-server/internal/media/images"
	"github.com/daybookapp/daybook-server/internal/repository"
)

// State is the composer's lifecycle phase.
type State string

const (
	// StateIdle means no draft is open.
	StateIdle State = "idle"
	// StateDrafting means a new, never-saved entry is being written.
	StateDrafting State = "drafting"
	// StateEditing means the buffer was loaded from a persisted entry.
	StateEditing State = "editing"
)

// PhotoFile is one image handed to AttachPhotos: raw bytes plus the
// filesystem facts the capture-time fallback chain needs.
type PhotoFile struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Composer holds the draft buffer. It is private to one editing session;
// nothing outside reads it until Commit hands the finished entry to the
// repository.
type Composer struct {
	repo   *repository.Repository
	preset images.Preset
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	entryID  string
	date     string
	title    string
	body     string
	notes    string
	tone     string
	photos   []string
	items    []domain.PhotoItem
	repIndex int
	viewIdx  int
}

// New creates an idle composer. Attached photos are downscaled with the
// given preset before entering the buffer.
func New(repo *repository.Repository, preset images.Preset, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{
		repo:   repo,
		preset: preset,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
}

// State returns the current lifecycle phase.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// EntryID returns the id being edited, empty unless in the editing state.
func (c *Composer) EntryID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entryID
}

// StartNew opens an empty draft, discarding whatever was in the buffer.
// The selected day is kept so a commit still lands on it.
func (c *Composer) StartNew() {
	c.mu.Lock()
	defer c.mu.Unlock()
	date := c.date
	c.clearLocked()
	c.date = date
	c.state = StateDrafting
}

// LoadForEdit fills the buffer from a persisted entry. The slideshow
// cursor starts on the representative photo.
func (c *Composer) LoadForEdit(entry domain.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateEditing
	c.entryID = entry.ID
	c.date = entry.Date
	c.title = entry.Title
	c.body = entry.Body
	c.notes = entry.Notes
	c.tone = entry.Tone
	c.photos = append([]string(nil), entry.Photos...)
	c.items = append([]domain.PhotoItem(nil), entry.PhotoItems...)
	c.repIndex = entry.RepIndex
	c.viewIdx = entry.RepIndex
}

// SetDate points the draft at a calendar day ("YYYY-MM-DD").
func (c *Composer) SetDate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = date
}

// Date returns the draft's calendar day.
func (c *Composer) Date() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

// SetTitle updates the draft title.
func (c *Composer) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.title = title
}

// SetBody updates the draft body.
func (c *Composer) SetBody(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
}

// SetNotes updates the draft notes.
func (c *Composer) SetNotes(notes string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = notes
}

// SetTone updates the draft's generation tone.
func (c *Composer) SetTone(tone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tone = tone
}

// Photos returns a copy of the draft's display images.
func (c *Composer) Photos() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.photos...)
}

// PhotoItems returns a copy of the draft's photo metadata.
func (c *Composer) PhotoItems() []domain.PhotoItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.PhotoItem(nil), c.items...)
}

// RepIndex returns the representative photo index.
func (c *Composer) RepIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repIndex
}

// ViewIndex returns the slideshow cursor position.
func (c *Composer) ViewIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewIdx
}

// Snapshot is a point-in-time copy of the whole draft buffer.
type Snapshot struct {
	State     State
	EntryID   string
	Date      string
	Title     string
	Body      string
	Notes     string
	Tone      string
	Photos    []string
	Items     []domain.PhotoItem
	RepIndex  int
	ViewIndex int
}

// Snapshot copies the buffer for read-only display.
func (c *Composer) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		EntryID:   c.entryID,
		Date:      c.date,
		Title:     c.title,
		Body:      c.body,
		Notes:     c.notes,
		Tone:      c.tone,
		Photos:    append([]string(nil), c.photos...),
		Items:     append([]domain.PhotoItem(nil), c.items...),
		RepIndex:  c.repIndex,
		ViewIndex: c.viewIdx,
	}
}

// AttachPhotos downscales the given files into the draft, up to the
// per-entry photo cap; files past the cap are dropped with a warning.
// Each photo gets a capture timestamp from its metadata, falling back to
// the file's modified time and then the current clock, plus GPS when the
// metadata carries it. The whole collection is re-sorted by capture time
// ascending after the batch, so the representative and cursor reset to
// the first photo.
func (c *Composer) AttachPhotos(ctx context.Context, files ...PhotoFile) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return 0, apperrors.Validation("no draft open")
	}

	room := domain.MaxPhotos - len(c.photos)
	if room <= 0 {
		return 0, apperrors.Validationf("photo limit of %d reached", domain.MaxPhotos)
	}
	if len(files) > room {
		c.logger.Warn("Dropping photos over the per-entry limit",
			"limit", domain.MaxPhotos,
			"dropped", len(files)-room)
		files = files[:room]
	}

	attached := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return attached, err
		}

		dataURL, err := images.Downscale(file.Data, c.preset)
		if err != nil {
			c.logger.Warn("Skipping photo that failed to decode",
				"name", file.Name,
				"error", err)
			continue
		}

		meta, metaErr := exif.Extract(file.Data)
		item := domain.PhotoItem{
			DataURL: dataURL,
			Name:    file.Name,
			ShotAt:  c.captureTime(meta, metaErr, file.ModTime),
		}
		if metaErr == nil && meta.HasGPS {
			item.GPS = &domain.GPS{Lat: meta.Lat, Lng: meta.Lng}
		}

		c.photos = append(c.photos, dataURL)
		c.items = append(c.items, item)
		attached++
	}

	if attached > 0 {
		c.sortByCaptureLocked()
		c.repIndex = 0
		c.viewIdx = 0
	}
	return attached, nil
}

// captureTime resolves a photo's timestamp: metadata capture time, then
// file modified time, then the current clock.
func (c *Composer) captureTime(meta exif.Metadata, metaErr error, modTime time.Time) int64 {
	if metaErr == nil && !meta.CapturedAt.IsZero() {
		return meta.CapturedAt.UnixMilli()
	}
	if !modTime.IsZero() {
		return modTime.UnixMilli()
	}
	return c.now().UnixMilli()
}

// sortByCaptureLocked re-sorts photos and metadata together by capture
// time ascending. Caller holds the mutex.
func (c *Composer) sortByCaptureLocked() {
	type pair struct {
		photo string
		item  domain.PhotoItem
	}
	pairs := make([]pair, len(c.photos))
	for i := range c.photos {
		pairs[i] = pair{photo: c.photos[i], item: c.items[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].item.ShotAt < pairs[j].item.ShotAt
	})
	for i, p := range pairs {
		c.photos[i] = p.photo
		c.items[i] = p.item
	}
}

// RemovePhoto drops the photo and its metadata at index, clamping the
// representative and cursor into the shrunken range.
func (c *Composer) RemovePhoto(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.photos) {
		return apperrors.Validationf("photo index %d out of range", index)
	}

	c.photos = append(c.photos[:index], c.photos[index+1:]...)
	c.items = append(c.items[:index], c.items[index+1:]...)

	last := len(c.photos) - 1
	if last < 0 {
		last = 0
	}
	if c.repIndex > last {
		c.repIndex = last
	}
	if c.viewIdx > last {
		c.viewIdx = last
	}
	return nil
}

// SetRepresentative marks the photo at index as the entry's cover and
// moves the cursor onto it.
func (c *Composer) SetRepresentative(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.photos) {
		return apperrors.Validationf("photo index %d out of range", index)
	}
	c.repIndex = index
	c.viewIdx = index
	return nil
}

// Commit assembles the draft into an entry and saves it. A draft commits
// under a fresh id, an edit reuses the loaded one. On success the
// composer transitions to editing the saved entry; on failure both state
// and buffer stay intact so the user can retry.
func (c *Composer) Commit(ctx context.Context) (domain.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return domain.Entry{}, apperrors.Validation("no draft open")
	}
	if strings.TrimSpace(c.body) == "" {
		return domain.Entry{}, apperrors.Validation("diary body is required")
	}
	if c.date == "" {
		return domain.Entry{}, apperrors.Validation("no day selected")
	}

	entry := domain.Entry{
		ID:         c.entryID,
		Title:      c.title,
		Body:       c.body,
		Notes:      c.notes,
		Tone:       c.tone,
		Photos:     append([]string(nil), c.photos...),
		PhotoItems: append([]domain.PhotoItem(nil), c.items...),
		RepIndex:   c.repIndex,
		Date:       c.date,
		TS:         domain.DayStart(c.date),
		Touched:    c.now().UnixMilli(),
	}

	saved, err := c.repo.Save(ctx, entry)
	if err != nil {
		return domain.Entry{}, err
	}

	c.state = StateEditing
	c.entryID = saved.ID
	return saved, nil
}

// Reset clears the buffer and returns to idle. The caller owns clearing
// any file-input surface it presented.
func (c *Composer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Composer) clearLocked() {
	c.state = StateIdle
	c.entryID = ""
	c.date = ""
	c.title = ""
	c.body = ""
	c.notes = ""
	c.tone = ""
	c.photos = nil
	c.items = nil
	c.repIndex = 0
	c.viewIdx = 0
}
