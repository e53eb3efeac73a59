package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJPEG encodes a solid-color JPEG of the given size.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 120, B: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func TestDataURL_RoundTrip(t *testing.T) {
	original := []byte{0x01, 0x02, 0xFF, 0x00, 0x42}

	dataURL := EncodeDataURL("image/jpeg", original)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/jpeg;base64,"))

	mimeType, decoded, err := DecodeDataURL(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	assert.Equal(t, original, decoded)
}

func TestDecodeDataURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a data url", "https://example.com/a.jpg"},
		{"missing comma", "data:image/jpeg;base64"},
		{"unsupported encoding", "data:image/jpeg,rawpayload"},
		{"bad base64", "data:image/jpeg;base64,&&&&"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeDataURL(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestDataURLSize(t *testing.T) {
	payload := make([]byte, 1000)
	dataURL := EncodeDataURL("image/jpeg", payload)

	assert.Equal(t, 1000, DataURLSize(dataURL))
	assert.Zero(t, DataURLSize("not a data url"))
}

func TestDownscale_ShrinksLongestSide(t *testing.T) {
	data := testJPEG(t, 2000, 1000)

	dataURL, err := Downscale(data, Preset{MaxDimension: 800, Quality: 60})
	require.NoError(t, err)

	mimeType, out, err := DecodeDataURL(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestDownscale_NeverUpscales(t *testing.T) {
	data := testJPEG(t, 300, 200)

	dataURL, err := Downscale(data, Preset{MaxDimension: 1280, Quality: 80})
	require.NoError(t, err)

	_, out, err := DecodeDataURL(dataURL)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestDownscale_PortraitOrientation(t *testing.T) {
	data := testJPEG(t, 1000, 2000)

	dataURL, err := Downscale(data, Preset{MaxDimension: 600, Quality: 50})
	require.NoError(t, err)

	_, out, err := DecodeDataURL(dataURL)
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestDownscale_PNGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	dataURL, err := Downscale(buf.Bytes(), DefaultPreset)
	require.NoError(t, err)

	// Always re-encoded as JPEG.
	mimeType, _, err := DecodeDataURL(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
}

func TestDownscale_InvalidData(t *testing.T) {
	_, err := Downscale([]byte("not an image"), DefaultPreset)
	assert.Error(t, err)
}

func TestDownscaleDataURL_LadderShrinksPayload(t *testing.T) {
	data := testJPEG(t, 1600, 1200)
	dataURL, err := Downscale(data, DefaultPreset)
	require.NoError(t, err)

	prev := DataURLSize(dataURL)
	for _, preset := range Ladder[1:] {
		smaller, err := DownscaleDataURL(dataURL, preset)
		require.NoError(t, err)
		size := DataURLSize(smaller)
		assert.Less(t, size, prev, "preset %+v should shrink payload", preset)
		prev = size
	}
}

func TestComputeBlurHash(t *testing.T) {
	data := testJPEG(t, 640, 480)
	dataURL := EncodeDataURL("image/jpeg", data)

	hash, err := ComputeBlurHash(dataURL)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Deterministic for identical input.
	again, err := ComputeBlurHash(dataURL)
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestComputeBlurHash_InvalidInput(t *testing.T) {
	_, err := ComputeBlurHash("data:image/jpeg;base64,AAAA")
	assert.Error(t, err)
}
