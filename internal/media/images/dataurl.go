// Package images provides photo decoding, downscaling, and inline data-URL handling.
package images

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURL wraps raw image bytes as an inline data: URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL unwraps an inline data: URL into its MIME type and raw bytes.
func DecodeDataURL(dataURL string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}

	rest := strings.TrimPrefix(dataURL, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("malformed data URL: missing comma")
	}

	meta := rest[:comma]
	payload := rest[comma+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("unsupported data URL encoding: %q", meta)
	}
	mimeType = strings.TrimSuffix(meta, ";base64")

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL payload: %w", err)
	}

	return mimeType, data, nil
}

// DataURLSize returns the decoded byte size of a data URL payload without
// decoding it. Returns 0 for anything that is not a base64 data URL.
func DataURLSize(dataURL string) int {
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 || !strings.HasPrefix(dataURL, "data:") {
		return 0
	}
	payload := dataURL[comma+1:]
	size := len(payload) / 4 * 3
	size -= strings.Count(payload[max(0, len(payload)-2):], "=")
	if size < 0 {
		return 0
	}
	return size
}
