package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Preset is one rung of the downscale ladder: the longest allowed side and
// the JPEG quality to re-encode at.
type Preset struct {
	MaxDimension int
	Quality      int
}

// DefaultPreset is used for the initial downscale when a photo is attached.
var DefaultPreset = Preset{MaxDimension: 1280, Quality: 80}

// Ladder holds the fallback presets tried in order when a save does not fit
// the durable store. Each rung trades more fidelity for a smaller payload.
var Ladder = []Preset{
	{MaxDimension: 1280, Quality: 70},
	{MaxDimension: 800, Quality: 60},
	{MaxDimension: 600, Quality: 50},
	{MaxDimension: 400, Quality: 40},
}

// Downscale decodes raw image bytes, scales the longest side down to
// preset.MaxDimension (never upscales), and re-encodes as JPEG at
// preset.Quality. The result is returned as an inline data URL.
func Downscale(data []byte, preset Preset) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	scaled := scaleDown(img, preset.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: preset.Quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	return EncodeDataURL("image/jpeg", buf.Bytes()), nil
}

// DownscaleDataURL re-runs a stored inline payload through a smaller preset.
// This is what the save ladder uses: payloads only ever shrink.
func DownscaleDataURL(dataURL string, preset Preset) (string, error) {
	_, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return Downscale(data, preset)
}

// scaleDown resizes img so its longest side is at most maxDimension,
// preserving aspect ratio. Images already within bounds are returned as-is.
func scaleDown(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= maxDimension && srcHeight <= maxDimension {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = maxDimension
		dstHeight = (srcHeight * maxDimension) / srcWidth
		if dstHeight < 1 {
			dstHeight = 1
		}
	} else {
		dstHeight = maxDimension
		dstWidth = (srcWidth * maxDimension) / srcHeight
		if dstWidth < 1 {
			dstWidth = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
