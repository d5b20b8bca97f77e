package exifgps

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildGPSTIFF crafts a minimal little-endian TIFF whose IFD0 points to
// a GPS sub-IFD holding 51°30'0"N 0°7'12"W (51.5, -0.12) and, when
// marker is non-empty, a GPSProcessingMethod payload.
func buildGPSTIFF(t *testing.T, marker string) []byte {
	t.Helper()
	var b bytes.Buffer
	le := binary.LittleEndian

	put16 := func(v uint16) { binary.Write(&b, le, v) }
	put32 := func(v uint32) { binary.Write(&b, le, v) }

	entries := 4
	if marker != "" {
		entries = 5
	}
	gpsIFDOff := uint32(26)
	dataOff := gpsIFDOff + uint32(2+entries*12+4)
	latOff := dataOff
	lonOff := latOff + 24
	markerOff := lonOff + 24

	// TIFF header
	b.WriteString("II")
	put16(42)
	put32(8)

	// IFD0: one entry, the GPS IFD pointer (0x8825).
	put16(1)
	put16(0x8825)
	put16(4) // LONG
	put32(1)
	put32(gpsIFDOff)
	put32(0)

	// GPS IFD
	put16(uint16(entries))
	put16(0x0001) // GPSLatitudeRef
	put16(2)      // ASCII
	put32(2)
	b.WriteString("N\x00\x00\x00")
	put16(0x0002) // GPSLatitude
	put16(5)      // RATIONAL
	put32(3)
	put32(latOff)
	put16(0x0003) // GPSLongitudeRef
	put16(2)
	put32(2)
	b.WriteString("W\x00\x00\x00")
	put16(0x0004) // GPSLongitude
	put16(5)
	put32(3)
	put32(lonOff)
	if marker != "" {
		put16(0x001B) // GPSProcessingMethod
		put16(7)      // UNDEFINED
		put32(uint32(8 + len(marker)))
		put32(markerOff)
	}
	put32(0) // no next IFD

	// 51°30'0"
	for _, r := range [][2]uint32{{51, 1}, {30, 1}, {0, 1}} {
		put32(r[0])
		put32(r[1])
	}
	// 0°7'12"
	for _, r := range [][2]uint32{{0, 1}, {7, 1}, {12, 1}} {
		put32(r[0])
		put32(r[1])
	}
	if marker != "" {
		b.WriteString("ASCII\x00\x00\x00")
		b.WriteString(marker)
	}
	return b.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead_TaggedByThisTool(t *testing.T) {
	path := writeFile(t, "ours.tif", buildGPSTIFF(t, Marker("0.1.0")))

	info, err := NewReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !info.HasGPS {
		t.Fatal("expected GPS tags")
	}
	if math.Abs(info.Point.Lat-51.5) > 1e-9 || math.Abs(info.Point.Lon-(-0.12)) > 1e-9 {
		t.Errorf("unexpected point: %+v", info.Point)
	}
	if info.Marker != "geotag v0.1.0" {
		t.Errorf("marker = %q, want %q", info.Marker, "geotag v0.1.0")
	}
	if got := info.Provenance(); got != ProvenanceOurs {
		t.Errorf("Provenance() = %q, want %q", got, ProvenanceOurs)
	}
}

func TestRead_ExternalGPS(t *testing.T) {
	path := writeFile(t, "external.tif", buildGPSTIFF(t, ""))

	info, err := NewReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !info.HasGPS {
		t.Fatal("expected GPS tags")
	}
	if info.Marker != "" {
		t.Errorf("expected no marker, got %q", info.Marker)
	}
	if got := info.Provenance(); got != ProvenanceExternal {
		t.Errorf("Provenance() = %q, want %q", got, ProvenanceExternal)
	}
}

func TestRead_ForeignProcessingMethod(t *testing.T) {
	// GPSProcessingMethod written by something else (e.g. a phone's
	// "fused" provider) must not read as ours.
	path := writeFile(t, "foreign.tif", buildGPSTIFF(t, "fused"))

	info, err := NewReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Marker != "fused" {
		t.Errorf("marker = %q, want %q", info.Marker, "fused")
	}
	if got := info.Provenance(); got != ProvenanceExternal {
		t.Errorf("Provenance() = %q, want %q", got, ProvenanceExternal)
	}
}

func TestRead_JPEGWithoutEXIF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 200, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, "plain.jpg", buf.Bytes())

	info, err := NewReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.HasGPS {
		t.Error("expected no GPS")
	}
	if got := info.Provenance(); got != ProvenanceNone {
		t.Errorf("Provenance() = %q, want %q", got, ProvenanceNone)
	}
}

func TestRead_UnparseableFile(t *testing.T) {
	// Not an image at all: reads as "no GPS", not as an error.
	path := writeFile(t, "junk.jpg", []byte("not an image"))

	info, err := NewReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.HasGPS {
		t.Error("expected no GPS")
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := NewReader().Read(filepath.Join(t.TempDir(), "gone.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMarker(t *testing.T) {
	if got := Marker("0.1.0"); got != "geotag v0.1.0" {
		t.Errorf("Marker = %q", got)
	}
}

func TestInfo_Provenance(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"no gps", Info{}, ProvenanceNone},
		{"ours", Info{HasGPS: true, Marker: "geotag v0.1.0"}, ProvenanceOurs},
		{"ours newer version", Info{HasGPS: true, Marker: "geotag v2.3.4"}, ProvenanceOurs},
		{"external no marker", Info{HasGPS: true}, ProvenanceExternal},
		{"external foreign marker", Info{HasGPS: true, Marker: "gps"}, ProvenanceExternal},
		{"marker without gps", Info{Marker: "geotag v0.1.0"}, ProvenanceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Provenance(); got != tt.want {
				t.Errorf("Provenance() = %q, want %q", got, tt.want)
			}
		})
	}
}
