// Package geodesy provides great-circle distance math and small metric
// buffer helpers shared by every spatial component.
package geodesy

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Earth radii used by the haversine formulas. Both units share the same
// mean radius so kilometer and meter callers never drift apart.
const (
	EarthRadiusKM = 6371.0
	EarthRadiusM  = 6371000.0
)

// metersPerDegree is the meridian arc length of one degree on the mean
// sphere, used by the locally-flat projection.
const metersPerDegree = EarthRadiusM * math.Pi / 180.0

// bufferSegments is the number of edges used to approximate a buffer disk.
const bufferSegments = 32

// Point is an immutable latitude/longitude pair in EPSG:4326.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the WGS84 coordinate domain.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DistanceKM returns the haversine great-circle distance in kilometers.
func DistanceKM(a, b Point) float64 {
	return haversine(a, b, EarthRadiusKM)
}

// DistanceM returns the haversine great-circle distance in meters.
func DistanceM(a, b Point) float64 {
	return haversine(a, b, EarthRadiusM)
}

func haversine(a, b Point, radius float64) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * radius * math.Asin(math.Sqrt(h))
}

// BufferPoint returns a polygon approximating a disk of radiusM meters
// around p, built in a locally-flat projection centered on p. Used as a
// tolerance pad for boundary fallbacks, not for cartographic output.
func BufferPoint(p Point, radiusM float64) *geom.Polygon {
	flat := make([]float64, 0, (bufferSegments+1)*2)
	for i := 0; i <= bufferSegments; i++ {
		theta := 2 * math.Pi * float64(i) / bufferSegments
		x := radiusM * math.Cos(theta)
		y := radiusM * math.Sin(theta)
		lon, lat := Unproject(p, x, y)
		flat = append(flat, lon, lat)
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
}

// Project converts a lon/lat coordinate to locally-flat meters relative to
// origin (equirectangular, scaled by the origin's latitude).
func Project(origin Point, lon, lat float64) (x, y float64) {
	x = (lon - origin.Lon) * metersPerDegree * math.Cos(radians(origin.Lat))
	y = (lat - origin.Lat) * metersPerDegree
	return x, y
}

// Unproject converts locally-flat meters relative to origin back to lon/lat.
func Unproject(origin Point, x, y float64) (lon, lat float64) {
	lon = origin.Lon + x/(metersPerDegree*math.Cos(radians(origin.Lat)))
	lat = origin.Lat + y/metersPerDegree
	return lon, lat
}

// ProjectFlat reprojects an XY flat coordinate slice (lon/lat pairs) into
// locally-flat meters around origin. The result is a new slice.
func ProjectFlat(origin Point, flat []float64) []float64 {
	out := make([]float64, len(flat))
	for i := 0; i+1 < len(flat); i += 2 {
		x, y := Project(origin, flat[i], flat[i+1])
		out[i] = x
		out[i+1] = y
	}
	return out
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
