// Package exifgps reads and writes the GPS block of image metadata.
// Reading uses a pure-Go EXIF parser and never touches the file;
// writing shells out to exiftool, which owns tag encoding and performs
// in-place atomic rewrites.
package exifgps

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"geotag/internal/geo"
)

// MarkerPrefix opens the GPSProcessingMethod payload of every file this
// tool has tagged. The suffix carries the version that wrote it.
const MarkerPrefix = "geotag v"

// Marker returns the provenance marker written by the given tool version.
func Marker(version string) string { return MarkerPrefix + version }

// Provenance codes for existing GPS tags.
const (
	ProvenanceNone     = "none"     // no GPS tags
	ProvenanceOurs     = "ours"     // tagged by this tool, marker present
	ProvenanceExternal = "external" // tagged by a camera or another tool
)

// Info describes the GPS state of one image file.
type Info struct {
	HasGPS bool
	Point  geo.Point
	Marker string // GPSProcessingMethod payload, "" when absent
}

// Provenance classifies who wrote the GPS tags.
func (i *Info) Provenance() string {
	if !i.HasGPS {
		return ProvenanceNone
	}
	if strings.HasPrefix(i.Marker, MarkerPrefix) {
		return ProvenanceOurs
	}
	return ProvenanceExternal
}

// Reader extracts GPS info from image files.
type Reader struct{}

// NewReader returns a Reader.
func NewReader() *Reader { return &Reader{} }

// Read reports the GPS state of the image at path. Files without EXIF,
// or in formats the parser does not understand, read as having no GPS;
// only filesystem failures are errors.
func (r *Reader) Read(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read gps: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return &Info{}, nil
	}

	info := &Info{Marker: processingMethod(x)}
	lat, lon, err := x.LatLong()
	if err != nil {
		return info, nil
	}
	info.HasGPS = true
	info.Point = geo.Point{Lat: lat, Lon: lon}
	return info, nil
}

// undefinedASCIIPrefix is the 8-byte encoding header of an UNDEFINED
// EXIF payload holding ASCII text.
var undefinedASCIIPrefix = []byte("ASCII\x00\x00\x00")

func processingMethod(x *exif.Exif) string {
	tag, err := x.Get(exif.GPSProcessingMethod)
	if err != nil {
		return ""
	}
	val := tag.Val
	if bytes.HasPrefix(val, undefinedASCIIPrefix) {
		val = val[len(undefinedASCIIPrefix):]
	}
	return strings.TrimRight(string(val), "\x00")
}
