package municipio

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

// Fallback tolerances. Boundary data is imperfect near coastlines, borders
// and at coordinate-precision limits; the staged fallback trades a little
// positional ambiguity for near-total resolution coverage.
const (
	// bufferToleranceM pads the query point before the intersection tier.
	bufferToleranceM = 5.0
	// nearestMaxDistanceM bounds the final nearest-polygon tier.
	nearestMaxDistanceM = 300.0
)

// Resolution methods reported on a successful resolve.
const (
	MethodContainment = "containment"
	MethodBuffer      = "buffer"
	MethodNearest     = "nearest"
)

// Result is the outcome of resolving a point against the layer. A miss is
// data, not an error: Found=false lets the caller assemble a partial
// payload without administrative context.
type Result struct {
	Found      bool
	Method     string
	Attributes map[string]string
	// DistanceM is the boundary distance for the nearest tier, 0 otherwise.
	DistanceM float64
}

// NotFound is the sentinel result for a point no tier could place.
func NotFound() *Result {
	return &Result{Found: false}
}

// Resolve finds the administrative polygon for a query point using three
// ordered strategies, each tried only if the previous one yields nothing:
//
//  1. strict containment — when several polygons contain the point, the
//     smallest-area polygon wins (ties fall back to layer order);
//  2. intersection against a 5 m buffer around the point, first polygon in
//     layer order wins;
//  3. nearest boundary, accepted only within 300 m.
func (l *Layer) Resolve(query geodesy.Point) *Result {
	if hit := l.resolveContainment(query); hit != nil {
		return hit
	}
	if hit := l.resolveBuffer(query); hit != nil {
		return hit
	}
	if hit := l.resolveNearest(query); hit != nil {
		return hit
	}
	return NotFound()
}

func (l *Layer) resolveContainment(query geodesy.Point) *Result {
	var best *Polygon
	for _, poly := range l.polygons {
		if !poly.contains(query) {
			continue
		}
		if best == nil || poly.area < best.area {
			best = poly
		}
	}
	if best == nil {
		return nil
	}
	return &Result{Found: true, Method: MethodContainment, Attributes: best.Attributes}
}

func (l *Layer) resolveBuffer(query geodesy.Point) *Result {
	buf := geodesy.BufferPoint(query, bufferToleranceM)
	// ~1 degree ≈ 111km; pad generously relative to the buffer size.
	padDeg := bufferToleranceM / 1e4

	for _, poly := range l.polygons {
		if !poly.nearBounds(query, padDeg) {
			continue
		}
		if poly.intersectsBuffer(query, buf, bufferToleranceM) {
			return &Result{Found: true, Method: MethodBuffer, Attributes: poly.Attributes}
		}
	}
	return nil
}

func (l *Layer) resolveNearest(query geodesy.Point) *Result {
	var best *Polygon
	bestDist := math.Inf(1)

	for _, poly := range l.polygons {
		d := poly.boundaryDistanceM(query)
		if d < bestDist {
			best = poly
			bestDist = d
		}
	}

	if best == nil || bestDist > nearestMaxDistanceM {
		return nil
	}
	return &Result{
		Found:      true,
		Method:     MethodNearest,
		Attributes: best.Attributes,
		DistanceM:  bestDist,
	}
}

// intersectsBuffer reports whether the buffer disk around center touches
// the polygon: the center is inside, a buffer vertex is inside, or the
// polygon boundary passes within the buffer radius.
func (poly *Polygon) intersectsBuffer(center geodesy.Point, buf *geom.Polygon, radiusM float64) bool {
	if poly.contains(center) {
		return true
	}

	flat := buf.FlatCoords()
	for i := 0; i+1 < len(flat); i += 2 {
		if multiPolygonContains(poly.geometry, geom.Coord{flat[i], flat[i+1]}) {
			return true
		}
	}

	return poly.boundaryDistanceM(center) <= radiusM
}
