// Package registry holds the chain's store master and answers
// nearest-store queries against it.
package registry

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

// ErrEmptyRegistry is returned when a nearest-store lookup runs against a
// registry with no records.
var ErrEmptyRegistry = eris.New("registry: no store records loaded")

// Metrics are the operating metrics attached to a store record. Each field
// is independently nullable: a value that failed numeric coercion at load
// time stays nil and is propagated as nil, never as zero.
type Metrics struct {
	ExistenciaCosto   *float64
	ExistenciaPiezas  *float64
	VentaSinImpuestos *float64
	VentaCosto        *float64
	VentaPiezas       *float64
	Transacciones     *float64
	TicketPromedio    *float64
	PromCantidad      *float64
	PromMontoSinImp   *float64
}

// StoreRecord is one row of the store master.
type StoreRecord struct {
	StoreID  int64
	Tienda   string
	Region   string
	Zona     string
	Estado   string
	Location geodesy.Point
	Metrics  Metrics
}

// Registry is an ordered, immutable collection of store records. Every
// record carries valid coordinates; rows failing coordinate parse are
// dropped at load time.
type Registry struct {
	records []StoreRecord
}

// New builds a registry from already-validated records. Record order is
// preserved and significant: it breaks nearest-store ties.
func New(records []StoreRecord) *Registry {
	return &Registry{records: records}
}

// Len returns the number of store records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns the underlying record slice. Callers must not mutate it.
func (r *Registry) Records() []StoreRecord {
	return r.records
}

// NearestResult describes the store closest to a query point.
type NearestResult struct {
	Query      geodesy.Point
	StoreID    int64
	Tienda     string
	Estado     string
	Region     string
	DistanceKM float64 // rounded to 4 decimals
	Metrics    Metrics
}

// FindNearest scans the registry for the store with minimum haversine
// distance to query. Ties are broken by registry order (first record wins).
func (r *Registry) FindNearest(query geodesy.Point) (*NearestResult, error) {
	if len(r.records) == 0 {
		return nil, ErrEmptyRegistry
	}

	best := 0
	bestDist := geodesy.DistanceKM(query, r.records[0].Location)
	for i := 1; i < len(r.records); i++ {
		d := geodesy.DistanceKM(query, r.records[i].Location)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}

	rec := r.records[best]
	return &NearestResult{
		Query:      query,
		StoreID:    rec.StoreID,
		Tienda:     rec.Tienda,
		Estado:     rec.Estado,
		Region:     rec.Region,
		DistanceKM: math.Round(bestDist*1e4) / 1e4,
		Metrics:    rec.Metrics,
	}, nil
}
