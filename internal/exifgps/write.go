package exifgps

import (
	"fmt"
	"math"

	exiftool "github.com/barasher/go-exiftool"

	"geotag/internal/geo"
)

// Writer writes GPS tags through a stay-open exiftool subprocess.
// Construct one per run and Close it when done. Writes are in-place:
// exiftool produces a rewritten copy and renames it over the original.
type Writer struct {
	et     *exiftool.Exiftool
	marker string
}

// NewWriter starts the exiftool subprocess. version goes into the
// provenance marker of every file written. Fails if the exiftool binary
// is not on PATH.
func NewWriter(version string) (*Writer, error) {
	et, err := exiftool.NewExiftool(exiftool.NoPrintConversion())
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &Writer{et: et, marker: Marker(version)}, nil
}

// Write sets the GPS coordinate tags and the provenance marker on the
// image at path, replacing any existing values. Only the five GPS
// fields are touched; the rest of the metadata is left alone.
func (w *Writer) Write(path string, p geo.Point) error {
	if !p.Valid() {
		return fmt.Errorf("write gps: point out of range: %s", p)
	}

	latRef, lonRef := "N", "E"
	if p.Lat < 0 {
		latRef = "S"
	}
	if p.Lon < 0 {
		lonRef = "W"
	}

	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	fm.SetFloat("GPSLatitude", math.Abs(p.Lat))
	fm.SetString("GPSLatitudeRef", latRef)
	fm.SetFloat("GPSLongitude", math.Abs(p.Lon))
	fm.SetString("GPSLongitudeRef", lonRef)
	fm.SetString("GPSProcessingMethod", w.marker)

	fms := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return fmt.Errorf("write gps %s: %w", path, fms[0].Err)
	}
	return nil
}

// Close stops the exiftool subprocess.
func (w *Writer) Close() error {
	return w.et.Close()
}
