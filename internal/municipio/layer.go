// Package municipio resolves which INEGI municipal polygon contains a
// query point, with a tiered fallback for imperfect boundary data.
package municipio

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

// Polygon is one administrative region: its boundary geometry plus the
// attribute row from the source layer (CVEGEO, CVE_ENT, CVE_MUN, NOMGEO,
// demographic fields, ...).
type Polygon struct {
	Attributes map[string]string

	geometry *geom.MultiPolygon
	bounds   *geom.Bounds
	// area is a planar shoelace area in squared degrees. It is only used
	// to break containment ties deterministically, never reported.
	area float64
}

// NewPolygon wraps a multipolygon geometry and its attributes.
func NewPolygon(geometry *geom.MultiPolygon, attrs map[string]string) *Polygon {
	return &Polygon{
		Attributes: attrs,
		geometry:   geometry,
		bounds:     geometry.Bounds(),
		area:       multiPolygonArea(geometry),
	}
}

// Layer is an immutable ordered collection of administrative polygons,
// loaded once per process and shared read-only across queries.
type Layer struct {
	polygons []*Polygon
}

// NewLayer builds a layer preserving polygon order; order is the final
// tie-break for the containment and buffer tiers.
func NewLayer(polygons []*Polygon) *Layer {
	return &Layer{polygons: polygons}
}

// Len returns the number of polygons in the layer.
func (l *Layer) Len() int {
	return len(l.polygons)
}

// contains reports whether the polygon's interior includes p.
func (poly *Polygon) contains(p geodesy.Point) bool {
	if !poly.nearBounds(p, 0) {
		return false
	}
	return multiPolygonContains(poly.geometry, geom.Coord{p.Lon, p.Lat})
}

// boundaryDistanceM returns the minimum distance in meters from p to the
// polygon's boundary, measured in a locally-flat projection around p.
func (poly *Polygon) boundaryDistanceM(p geodesy.Point) float64 {
	min := math.Inf(1)
	origin := geom.Coord{0, 0}

	mp := poly.geometry
	for i := 0; i < mp.NumPolygons(); i++ {
		pg := mp.Polygon(i)
		for j := 0; j < pg.NumLinearRings(); j++ {
			flat := geodesy.ProjectFlat(p, pg.LinearRing(j).FlatCoords())
			d := xy.DistanceFromPointToLineString(geom.XY, origin, flat)
			if d < min {
				min = d
			}
		}
	}
	return min
}

// nearBounds is a cheap bounding-box prefilter: padDeg expands the box to
// cover buffer tolerances expressed in degrees.
func (poly *Polygon) nearBounds(p geodesy.Point, padDeg float64) bool {
	b := poly.bounds
	return p.Lon >= b.Min(0)-padDeg && p.Lon <= b.Max(0)+padDeg &&
		p.Lat >= b.Min(1)-padDeg && p.Lat <= b.Max(1)+padDeg
}

func multiPolygonContains(mp *geom.MultiPolygon, c geom.Coord) bool {
	for i := 0; i < mp.NumPolygons(); i++ {
		pg := mp.Polygon(i)
		if pg.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, c, pg.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for j := 1; j < pg.NumLinearRings(); j++ {
			if xy.IsPointInRing(geom.XY, c, pg.LinearRing(j).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func multiPolygonArea(mp *geom.MultiPolygon) float64 {
	var total float64
	for i := 0; i < mp.NumPolygons(); i++ {
		pg := mp.Polygon(i)
		if pg.NumLinearRings() == 0 {
			continue
		}
		total += ringArea(pg.LinearRing(0).FlatCoords())
		for j := 1; j < pg.NumLinearRings(); j++ {
			total -= ringArea(pg.LinearRing(j).FlatCoords())
		}
	}
	return total
}

// ringArea is the absolute shoelace area of a closed XY flat-coordinate ring.
func ringArea(flat []float64) float64 {
	var sum float64
	n := len(flat)
	for i := 0; i+3 < n; i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return math.Abs(sum) / 2
}
