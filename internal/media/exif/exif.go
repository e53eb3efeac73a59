// Package exif extracts capture time and GPS position from JPEG photos.
//
// Only the handful of tags the diary needs are read: DateTimeOriginal,
// DateTime, and the GPS latitude/longitude pairs. Photos without an Exif
// segment, or with a malformed one, yield an empty Metadata rather than an
// error — callers fall back to file times.
package exif

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Metadata is what a photo's Exif segment yields.
type Metadata struct {
	// CapturedAt is the capture time in the local timezone.
	// Zero when the photo carries no usable date tag.
	CapturedAt time.Time
	// Lat/Lng are decimal degrees, valid only when HasGPS is set.
	Lat    float64
	Lng    float64
	HasGPS bool
}

// Relevant TIFF/Exif tag IDs.
const (
	tagDateTime         = 0x0132
	tagExifIFDPointer   = 0x8769
	tagGPSIFDPointer    = 0x8825
	tagDateTimeOriginal = 0x9003

	tagGPSLatitudeRef  = 0x0001
	tagGPSLatitude     = 0x0002
	tagGPSLongitudeRef = 0x0003
	tagGPSLongitude    = 0x0004
)

// exifDateLayout is the fixed "YYYY:MM:DD HH:MM:SS" format Exif mandates.
const exifDateLayout = "2006:01:02 15:04:05"

// Extract parses the Exif segment of a JPEG and returns whatever capture
// metadata it holds. A photo without Exif returns a zero Metadata and no
// error; only structurally broken input errors.
func Extract(data []byte) (Metadata, error) {
	tiff, err := findExifSegment(data)
	if err != nil {
		return Metadata{}, err
	}
	if tiff == nil {
		return Metadata{}, nil
	}
	return parseTIFF(tiff)
}

// findExifSegment walks the JPEG marker stream looking for an APP1 segment
// with the "Exif\0\0" signature. Returns nil when the file has none.
func findExifSegment(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("not a JPEG")
	}

	offset := 2
	for offset+4 <= len(data) {
		if data[offset] != 0xFF {
			return nil, fmt.Errorf("bad marker at offset %d", offset)
		}
		marker := data[offset+1]

		// Start of scan: no more metadata segments follow.
		if marker == 0xDA {
			return nil, nil
		}

		length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		if length < 2 || offset+2+length > len(data) {
			return nil, fmt.Errorf("truncated segment at offset %d", offset)
		}

		payload := data[offset+4 : offset+2+length]
		if marker == 0xE1 && len(payload) > 6 && string(payload[:6]) == "Exif\x00\x00" {
			return payload[6:], nil
		}

		offset += 2 + length
	}

	return nil, nil
}

// parseTIFF reads IFD0 plus the Exif and GPS sub-IFDs out of the TIFF
// structure inside the Exif segment.
func parseTIFF(tiff []byte) (Metadata, error) {
	if len(tiff) < 8 {
		return Metadata{}, fmt.Errorf("exif segment too short")
	}

	var bo binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return Metadata{}, fmt.Errorf("unknown byte order %q", tiff[:2])
	}
	if bo.Uint16(tiff[2:4]) != 42 {
		return Metadata{}, fmt.Errorf("bad TIFF magic")
	}

	ifd0, err := readIFD(tiff, bo.Uint32(tiff[4:8]), bo)
	if err != nil {
		return Metadata{}, err
	}

	var meta Metadata

	// DateTimeOriginal (Exif sub-IFD) wins over IFD0's DateTime.
	dateStr := ifd0.ascii(tagDateTime)
	if ptr, ok := ifd0.uint(tagExifIFDPointer); ok {
		if exifIFD, err := readIFD(tiff, ptr, bo); err == nil {
			if s := exifIFD.ascii(tagDateTimeOriginal); s != "" {
				dateStr = s
			}
		}
	}
	if dateStr != "" {
		if t, err := time.ParseInLocation(exifDateLayout, dateStr, time.Local); err == nil {
			meta.CapturedAt = t
		}
	}

	if ptr, ok := ifd0.uint(tagGPSIFDPointer); ok {
		if gpsIFD, err := readIFD(tiff, ptr, bo); err == nil {
			lat, latOK := gpsIFD.dms(tagGPSLatitude)
			lng, lngOK := gpsIFD.dms(tagGPSLongitude)
			if latOK && lngOK {
				if gpsIFD.asciiOr(tagGPSLatitudeRef, "N") == "S" {
					lat = -lat
				}
				if gpsIFD.asciiOr(tagGPSLongitudeRef, "E") == "W" {
					lng = -lng
				}
				meta.Lat = lat
				meta.Lng = lng
				meta.HasGPS = true
			}
		}
	}

	return meta, nil
}

// ifd holds the raw entries of one image file directory.
type ifd struct {
	entries map[uint16]ifdEntry
	tiff    []byte
	bo      binary.ByteOrder
}

type ifdEntry struct {
	typ   uint16
	count uint32
	// raw is the 4-byte value field: either the value itself or an offset
	// into the TIFF body when the value doesn't fit inline.
	raw []byte
}

// TIFF field types we care about.
const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

func typeSize(typ uint16) uint32 {
	switch typ {
	case typeASCII:
		return 1
	case typeShort:
		return 2
	case typeLong:
		return 4
	case typeRational:
		return 8
	default:
		return 0
	}
}

func readIFD(tiff []byte, offset uint32, bo binary.ByteOrder) (*ifd, error) {
	if uint64(offset)+2 > uint64(len(tiff)) {
		return nil, fmt.Errorf("IFD offset %d out of range", offset)
	}

	count := int(bo.Uint16(tiff[offset : offset+2]))
	base := int(offset) + 2
	if base+count*12 > len(tiff) {
		return nil, fmt.Errorf("truncated IFD at offset %d", offset)
	}

	out := &ifd{
		entries: make(map[uint16]ifdEntry, count),
		tiff:    tiff,
		bo:      bo,
	}
	for i := 0; i < count; i++ {
		entry := tiff[base+i*12 : base+(i+1)*12]
		out.entries[bo.Uint16(entry[0:2])] = ifdEntry{
			typ:   bo.Uint16(entry[2:4]),
			count: bo.Uint32(entry[4:8]),
			raw:   entry[8:12],
		}
	}
	return out, nil
}

// value returns the entry's full value bytes, following the offset
// indirection when the value is larger than 4 bytes.
func (d *ifd) value(e ifdEntry) []byte {
	size := typeSize(e.typ) * e.count
	if size == 0 {
		return nil
	}
	if size <= 4 {
		return e.raw[:size]
	}
	offset := d.bo.Uint32(e.raw)
	if uint64(offset)+uint64(size) > uint64(len(d.tiff)) {
		return nil
	}
	return d.tiff[offset : offset+size]
}

func (d *ifd) ascii(tag uint16) string {
	e, ok := d.entries[tag]
	if !ok || e.typ != typeASCII {
		return ""
	}
	return strings.TrimRight(string(d.value(e)), "\x00 ")
}

func (d *ifd) asciiOr(tag uint16, fallback string) string {
	if s := d.ascii(tag); s != "" {
		return s
	}
	return fallback
}

func (d *ifd) uint(tag uint16) (uint32, bool) {
	e, ok := d.entries[tag]
	if !ok {
		return 0, false
	}
	v := d.value(e)
	switch e.typ {
	case typeShort:
		if len(v) >= 2 {
			return uint32(d.bo.Uint16(v)), true
		}
	case typeLong:
		if len(v) >= 4 {
			return d.bo.Uint32(v), true
		}
	}
	return 0, false
}

// dms reads a degrees/minutes/seconds rational triple as decimal degrees.
func (d *ifd) dms(tag uint16) (float64, bool) {
	e, ok := d.entries[tag]
	if !ok || e.typ != typeRational || e.count < 3 {
		return 0, false
	}
	v := d.value(e)
	if len(v) < 24 {
		return 0, false
	}

	parts := make([]float64, 3)
	for i := 0; i < 3; i++ {
		num := d.bo.Uint32(v[i*8 : i*8+4])
		den := d.bo.Uint32(v[i*8+4 : i*8+8])
		if den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}
	return parts[0] + parts[1]/60 + parts[2]/3600, true
}
