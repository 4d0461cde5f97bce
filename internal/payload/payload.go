// Package payload assembles the flat result document sent downstream.
// Every producer writes under its own key prefix, so merging is
// collision-free by construction.
package payload

import (
	"math"
	"strconv"
	"time"

	"github.com/tiendasneto/expansion-cli/internal/competition"
	"github.com/tiendasneto/expansion-cli/internal/generators"
	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/integration"
	"github.com/tiendasneto/expansion-cli/internal/municipio"
	"github.com/tiendasneto/expansion-cli/internal/registry"
)

// Source tags every payload with the pipeline that produced it.
const Source = "expansion_pipeline_v1"

// metricKeys maps store metrics to their payload keys. The column-style
// casing is what the downstream sheets already consume.
var metricKeys = []struct {
	key   string
	value func(m registry.Metrics) *float64
}{
	{"tienda_cercanaExistencia_Costo", func(m registry.Metrics) *float64 { return m.ExistenciaCosto }},
	{"tienda_cercanaExistencia_Piezas", func(m registry.Metrics) *float64 { return m.ExistenciaPiezas }},
	{"tienda_cercanaVenta_Sin_Impuestos", func(m registry.Metrics) *float64 { return m.VentaSinImpuestos }},
	{"tienda_cercanaVenta_Costo", func(m registry.Metrics) *float64 { return m.VentaCosto }},
	{"tienda_cercanaVenta_Piezas", func(m registry.Metrics) *float64 { return m.VentaPiezas }},
	{"tienda_cercanaTransacciones", func(m registry.Metrics) *float64 { return m.Transacciones }},
	{"tienda_cercanaTicket_Promedio", func(m registry.Metrics) *float64 { return m.TicketPromedio }},
	{"tienda_cercanaProm_Cantidad", func(m registry.Metrics) *float64 { return m.PromCantidad }},
	{"tienda_cercanaProm_Monto_Sin_Imp", func(m registry.Metrics) *float64 { return m.PromMontoSinImp }},
}

// Parts are the per-stage results feeding one payload. Any part may be
// nil: its keys are simply absent, except the municipality block which
// always carries an explicit INEGI_FOUND flag.
type Parts struct {
	Query       geodesy.Point
	Nearest     *registry.NearestResult
	Municipio   *municipio.Result
	Competencia *competition.Summary
	Integracion *integration.Result
	Generadores *generators.Summary

	// PlacesConteo is the per-POI-type result count. Keys are the raw
	// searched types; the legacy consumers expect them unprefixed.
	PlacesConteo map[string]int
}

// Build flattens the stage results into one document. Times are stamped
// in UTC; NaN and Inf values are scrubbed to nil so the document always
// survives JSON encoding.
func Build(parts Parts) map[string]any {
	p := map[string]any{
		"lat":       parts.Query.Lat,
		"longitud":  parts.Query.Lon,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"fuente":    Source,
	}

	putNearest(p, parts.Nearest)
	putMunicipio(p, parts.Municipio)
	putPlaces(p, parts.PlacesConteo)
	putCompetencia(p, parts.Competencia)
	putIntegracion(p, parts.Integracion)
	putGeneradores(p, parts.Generadores)

	return Scrub(p)
}

func putPlaces(p map[string]any, conteo map[string]int) {
	if conteo == nil {
		return
	}
	total := 0
	for poiType, n := range conteo {
		p[poiType] = n
		total += n
	}
	p["total_lugares"] = total
}

func putNearest(p map[string]any, n *registry.NearestResult) {
	if n == nil {
		return
	}
	p["id_tienda_cercana"] = n.StoreID
	p["tienda_cercana"] = n.Tienda
	p["estado"] = n.Estado
	p["region"] = n.Region
	p["distancia_tienda_cercana_km"] = n.DistanceKM
	for _, mk := range metricKeys {
		if v := mk.value(n.Metrics); v != nil {
			p[mk.key] = *v
		} else {
			p[mk.key] = nil
		}
	}
}

func putMunicipio(p map[string]any, r *municipio.Result) {
	if r == nil || !r.Found {
		p["INEGI_FOUND"] = false
		return
	}
	p["INEGI_FOUND"] = true
	p["INEGI_METODO"] = r.Method
	if r.Method == municipio.MethodNearest {
		p["INEGI_DISTANCIA_M"] = math.Round(r.DistanceM*100) / 100
	}
	for k, v := range r.Attributes {
		p["INEGI_"+k] = v
	}
}

func putCompetencia(p map[string]any, s *competition.Summary) {
	if s == nil {
		return
	}
	p["competencia_total"] = s.Resumen.Total
	p["competencia_bodega_aurrera"] = s.Resumen.BodegaAurrera
	p["competencia_tiendas_3b"] = s.Resumen.Tiendas3B
	p["competencia_otras"] = s.Resumen.Otras
}

func putIntegracion(p map[string]any, r *integration.Result) {
	if r == nil {
		return
	}
	p["integracion_score"] = r.Score
	p["integracion_clasificacion"] = string(r.Clasificacion)
	p["integracion_diagnostico"] = r.Diagnostico
	for _, radius := range integration.Radii {
		p["integracion_"+strconv.Itoa(radius)+"m"] = r.ConteoPorRadio[radius]
	}
}

func putGeneradores(p map[string]any, s *generators.Summary) {
	if s == nil {
		return
	}
	p["generadores_total"] = s.Total
	for _, cat := range s.Categorias {
		p["generadores_"+cat.Categoria+"_count"] = cat.Total
		p["generadores_"+cat.Categoria+"_min_dist_km"] = cat.MinDistKM
		p["generadores_"+cat.Categoria+"_prom_dist_km"] = cat.AvgDistKM
	}
}

// Scrub replaces non-finite floats with nil, recursing into nested maps
// and slices. The input map is modified in place and returned.
func Scrub(p map[string]any) map[string]any {
	for k, v := range p {
		p[k] = scrubValue(v)
	}
	return p
}

func scrubValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case map[string]any:
		return Scrub(x)
	case []any:
		for i, e := range x {
			x[i] = scrubValue(e)
		}
		return x
	default:
		return v
	}
}
