// Package geo holds the coordinate primitives shared by the suggester,
// the EXIF layer, and the scan pipeline.
package geo

import (
	"fmt"
	"math"
)

// Point is a WGS-84 coordinate pair in decimal degrees.
// North latitudes and east longitudes are positive.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within WGS-84 bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// String renders the point in decimal degrees with ~1m precision.
func (p Point) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lon)
}

// DMS renders the point in degrees/minutes/seconds with hemisphere
// letters, e.g. `51°30'26.6"N 0°7'39.9"W`. Display only; tag encoding
// is owned by the metadata writer.
func (p Point) DMS() string {
	return dms(p.Lat, "N", "S") + " " + dms(p.Lon, "E", "W")
}

func dms(deg float64, pos, neg string) string {
	ref := pos
	if deg < 0 {
		ref = neg
		deg = -deg
	}
	d := math.Floor(deg)
	rem := (deg - d) * 60
	m := math.Floor(rem)
	s := (rem - m) * 60
	return fmt.Sprintf("%d°%d'%.1f\"%s", int(d), int(m), s, ref)
}

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance between two points in
// kilometers.
func DistanceKm(a, b Point) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
