package composer_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybookapp/daybook-server/internal/composer"
	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
	"github.com/daybookapp/daybook-server/internal/media/images"
	"github.com/daybookapp/daybook-server/internal/mirror"
	"github.com/daybookapp/daybook-server/internal/repository"
	"github.com/daybookapp/daybook-server/internal/store"
	"github.com/daybookapp/daybook-server/internal/validation"
)

func setupComposer(t *testing.T, maxEntryBytes int) *composer.Composer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "composer-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	s := store.New(store.Options{
		Path:          filepath.Join(tmpDir, "entries.db"),
		MaxEntryBytes: maxEntryBytes,
	})
	require.True(t, s.Available())
	t.Cleanup(func() { _ = s.Close() })

	m, err := mirror.Open(filepath.Join(tmpDir, "mirror.db"), 4<<20, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	repo := repository.New(s, m, validation.New(), nil)
	return composer.New(repo, images.DefaultPreset, nil)
}

// jpegBytes builds a small gradient JPEG, enough for the decode path
// without carrying capture metadata.
func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func photoFile(t *testing.T, name string, modTime time.Time) composer.PhotoFile {
	t.Helper()
	return composer.PhotoFile{Name: name, Data: jpegBytes(t, 40, 30), ModTime: modTime}
}

func TestComposer_StartNewKeepsSelectedDay(t *testing.T) {
	c := setupComposer(t, 8<<20)

	c.SetDate("2024-05-01")
	c.StartNew()

	assert.Equal(t, composer.StateDrafting, c.State())
	assert.Equal(t, "2024-05-01", c.Date())
	assert.Empty(t, c.Photos())
}

func TestComposer_AttachRequiresDraft(t *testing.T) {
	c := setupComposer(t, 8<<20)

	_, err := c.AttachPhotos(context.Background(), photoFile(t, "a.jpg", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestComposer_AttachSortsByCaptureTime(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	later := time.Date(2024, 5, 1, 15, 0, 0, 0, time.Local)
	earlier := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)

	attached, err := c.AttachPhotos(context.Background(),
		photoFile(t, "afternoon.jpg", later),
		photoFile(t, "morning.jpg", earlier),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, attached)

	items := c.PhotoItems()
	require.Len(t, items, 2)
	assert.Equal(t, "morning.jpg", items[0].Name)
	assert.Equal(t, "afternoon.jpg", items[1].Name)
	assert.Equal(t, earlier.UnixMilli(), items[0].ShotAt)
	assert.Equal(t, 0, c.RepIndex())
	assert.Equal(t, 0, c.ViewIndex())
	assert.Len(t, c.Photos(), 2)
}

func TestComposer_AttachFallsBackToClock(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	before := time.Now().UnixMilli()
	_, err := c.AttachPhotos(context.Background(), photoFile(t, "no-mtime.jpg", time.Time{}))
	require.NoError(t, err)

	items := c.PhotoItems()
	require.Len(t, items, 1)
	assert.GreaterOrEqual(t, items[0].ShotAt, before)
	assert.LessOrEqual(t, items[0].ShotAt, time.Now().UnixMilli())
}

func TestComposer_AttachEnforcesPhotoCap(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	files := make([]composer.PhotoFile, 0, domain.MaxPhotos+2)
	for i := 0; i < domain.MaxPhotos+2; i++ {
		files = append(files, photoFile(t, "p.jpg", time.Now()))
	}

	attached, err := c.AttachPhotos(context.Background(), files...)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPhotos, attached)
	assert.Len(t, c.Photos(), domain.MaxPhotos)

	_, err = c.AttachPhotos(context.Background(), photoFile(t, "overflow.jpg", time.Now()))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestComposer_AttachSkipsUndecodableFiles(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	attached, err := c.AttachPhotos(context.Background(),
		composer.PhotoFile{Name: "notes.txt", Data: []byte("not an image")},
		photoFile(t, "real.jpg", time.Now()),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, attached)

	items := c.PhotoItems()
	require.Len(t, items, 1)
	assert.Equal(t, "real.jpg", items[0].Name)
}

func TestComposer_RemovePhotoClampsIndexes(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	_, err := c.AttachPhotos(context.Background(),
		photoFile(t, "one.jpg", base),
		photoFile(t, "two.jpg", base.Add(time.Hour)),
		photoFile(t, "three.jpg", base.Add(2*time.Hour)),
	)
	require.NoError(t, err)
	require.NoError(t, c.SetRepresentative(2))

	require.NoError(t, c.RemovePhoto(2))
	assert.Len(t, c.Photos(), 2)
	assert.Equal(t, 1, c.RepIndex())
	assert.Equal(t, 1, c.ViewIndex())

	assert.ErrorIs(t, c.RemovePhoto(5), apperrors.ErrValidation)
	assert.ErrorIs(t, c.RemovePhoto(-1), apperrors.ErrValidation)

	require.NoError(t, c.RemovePhoto(0))
	require.NoError(t, c.RemovePhoto(0))
	assert.Empty(t, c.Photos())
	assert.Equal(t, 0, c.RepIndex())
}

func TestComposer_SetRepresentative(t *testing.T) {
	c := setupComposer(t, 8<<20)
	c.StartNew()

	_, err := c.AttachPhotos(context.Background(),
		photoFile(t, "one.jpg", time.Now()),
		photoFile(t, "two.jpg", time.Now().Add(time.Minute)),
	)
	require.NoError(t, err)

	require.NoError(t, c.SetRepresentative(1))
	assert.Equal(t, 1, c.RepIndex())
	assert.Equal(t, 1, c.ViewIndex())

	assert.ErrorIs(t, c.SetRepresentative(2), apperrors.ErrValidation)
}

func TestComposer_CommitValidation(t *testing.T) {
	c := setupComposer(t, 8<<20)

	_, err := c.Commit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c.StartNew()
	c.SetDate("2024-05-01")
	_, err = c.Commit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c.SetBody("   ")
	_, err = c.Commit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	c.SetBody("wrote something")
	c.SetDate("")
	_, err = c.Commit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, composer.StateDrafting, c.State())
}

func TestComposer_CommitDraftThenEdit(t *testing.T) {
	c := setupComposer(t, 8<<20)

	c.SetDate("2024-05-01")
	c.StartNew()
	c.SetTitle("river walk")
	c.SetBody("walked along the #river all afternoon")

	saved, err := c.Commit(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "2024-05-01", saved.Date)
	assert.Equal(t, domain.DayStart("2024-05-01"), saved.TS)
	assert.Positive(t, saved.Touched)
	assert.Equal(t, composer.StateEditing, c.State())
	assert.Equal(t, saved.ID, c.EntryID())

	// A second commit is an update under the same id.
	c.SetBody("walked along the #river all afternoon, then coffee")
	again, err := c.Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
}

func TestComposer_CommitFailureKeepsBuffer(t *testing.T) {
	c := setupComposer(t, 500)

	c.SetDate("2024-05-01")
	c.StartNew()
	c.SetBody("this entry will not fit the storage budget once photos attach")

	_, err := c.AttachPhotos(context.Background(), photoFile(t, "big.jpg", time.Now()))
	require.NoError(t, err)

	_, err = c.Commit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageExhausted)
	assert.Equal(t, composer.StateDrafting, c.State())
	assert.Len(t, c.Photos(), 1)

	// Buffer survived, so a retry fails the same way instead of
	// committing an emptied draft.
	_, err = c.Commit(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrStorageExhausted)
}

func TestComposer_LoadForEdit(t *testing.T) {
	c := setupComposer(t, 8<<20)

	entry := domain.Entry{
		ID:       "ent-existing",
		Title:    "old title",
		Body:     "old body",
		Date:     "2024-04-30",
		Photos:   []string{"data:image/jpeg;base64,AAAA", "data:image/jpeg;base64,BBBB"},
		RepIndex: 1,
		PhotoItems: []domain.PhotoItem{
			{Name: "a.jpg", ShotAt: 100},
			{Name: "b.jpg", ShotAt: 200},
		},
	}

	c.LoadForEdit(entry)
	assert.Equal(t, composer.StateEditing, c.State())
	assert.Equal(t, "ent-existing", c.EntryID())
	assert.Equal(t, "2024-04-30", c.Date())
	assert.Equal(t, 1, c.RepIndex())
	assert.Equal(t, 1, c.ViewIndex())
	assert.Len(t, c.Photos(), 2)
}

func TestComposer_Reset(t *testing.T) {
	c := setupComposer(t, 8<<20)

	c.SetDate("2024-05-01")
	c.StartNew()
	c.SetBody("draft text")
	_, err := c.AttachPhotos(context.Background(), photoFile(t, "a.jpg", time.Now()))
	require.NoError(t, err)

	c.Reset()
	assert.Equal(t, composer.StateIdle, c.State())
	assert.Empty(t, c.Date())
	assert.Empty(t, c.Photos())
	assert.Empty(t, c.EntryID())
}
