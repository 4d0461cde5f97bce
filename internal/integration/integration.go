// Package integration scores how embedded a candidate site is in its
// commercial surroundings, from traffic-generator counts at fixed radii.
package integration

import (
	"math"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/parse"
)

// Semaphore is the per-radius qualitative rating.
type Semaphore string

const (
	SemaforoRojo     Semaphore = "ROJO"
	SemaforoAmarillo Semaphore = "AMARILLO"
	SemaforoVerde    Semaphore = "VERDE"
)

// Classification is the final integration verdict.
type Classification string

const (
	ClasificacionIntegrado  Classification = "INTEGRADO"
	ClasificacionPeriferico Classification = "PERIFERICO"
	ClasificacionAislado    Classification = "AISLADO"
	ClasificacionSinDatos   Classification = "SIN_DATOS"
)

// Radii is the fixed evaluation ladder, in meters.
var Radii = []int{20, 50, 100, 150, 200, 300, 400, 500}

// threshold holds the two-level count thresholds for one radius.
type threshold struct {
	rojoMax     int
	amarilloMax int
}

// Baseline calibrated on the METRO SUR region. Fixed configuration, not
// runtime-tunable.
var (
	thresholds = map[int]threshold{
		20:  {rojoMax: 1, amarilloMax: 4},
		50:  {rojoMax: 4, amarilloMax: 9},
		100: {rojoMax: 14, amarilloMax: 29},
		150: {rojoMax: 29, amarilloMax: 59},
		200: {rojoMax: 49, amarilloMax: 79},
		300: {rojoMax: 99, amarilloMax: 149},
		400: {rojoMax: 149, amarilloMax: 189},
		500: {rojoMax: 199, amarilloMax: 249},
	}

	// weights sum to 100.
	weights = map[int]int{
		20:  5,
		50:  5,
		100: 25,
		150: 10,
		200: 25,
		300: 15,
		400: 10,
		500: 5,
	}
)

// Score classification cutoffs.
const (
	integradoMin  = 70.0
	perifericoMin = 50.0
)

// Executive diagnostics chosen from the 100m/200m semaphores.
const (
	diagSinDatos = "No se encontraron lugares válidos en el CSV."

	diagAislado = "El sitio presenta aislamiento comercial temprano hasta 200 m; " +
		"la actividad comercial se concentra a distancias mayores."

	diagTemprana = "El sitio muestra integración comercial temprana " +
		"dentro del entorno inmediato."

	diagParcial = "El sitio presenta integración comercial parcial; " +
		"la zona comercial existe, pero no envuelve completamente al punto."
)

// Candidate is one traffic-generator row. The anchor coordinates are the
// search origin recorded with the row, which need not equal the current
// query point. All four fields arrive raw and are coerced here.
type Candidate struct {
	QueryLat string
	QueryLon string
	PlaceLat string
	PlaceLon string
}

// RadiusDetail is the evaluation of one ladder radius.
type RadiusDetail struct {
	RadiusM      int       `json:"radio_m"`
	Generadores  int       `json:"generadores"`
	Semaforo     Semaphore `json:"semaforo"`
	Peso         int       `json:"peso"`
	AporteScore  float64   `json:"aporte_score"`
}

// Result is the integration verdict for a site.
type Result struct {
	Score          float64        `json:"integracion_score"`
	Clasificacion  Classification `json:"integracion_clasificacion"`
	Diagnostico    string         `json:"integracion_diagnostico"`
	Detalle        []RadiusDetail `json:"detalle"`
	ConteoPorRadio map[int]int    `json:"conteo_por_radio"`
}

// SinDatos is the sentinel result when no usable candidate rows exist.
func SinDatos() *Result {
	return &Result{
		Score:         0,
		Clasificacion: ClasificacionSinDatos,
		Diagnostico:   diagSinDatos,
	}
}

// Score evaluates the commercial integration of a site from raw
// traffic-generator rows. Rows failing coordinate coercion are dropped; an
// empty usable set yields the SIN_DATOS sentinel, never an error.
func Score(candidates []Candidate) *Result {
	distances := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		qLat := parse.Float(c.QueryLat)
		qLon := parse.Float(c.QueryLon)
		pLat := parse.Float(c.PlaceLat)
		pLon := parse.Float(c.PlaceLon)
		if qLat == nil || qLon == nil || pLat == nil || pLon == nil {
			continue
		}
		distances = append(distances, geodesy.DistanceM(
			geodesy.Point{Lat: *qLat, Lon: *qLon},
			geodesy.Point{Lat: *pLat, Lon: *pLon},
		))
	}

	if len(distances) == 0 {
		return SinDatos()
	}

	counts := make(map[int]int, len(Radii))
	for _, r := range Radii {
		n := 0
		for _, d := range distances {
			if d <= float64(r) {
				n++
			}
		}
		counts[r] = n
	}

	return scoreCounts(counts)
}

// scoreCounts applies the threshold/weight tables to per-radius counts.
func scoreCounts(counts map[int]int) *Result {
	res := &Result{
		Detalle:        make([]RadiusDetail, 0, len(Radii)),
		ConteoPorRadio: counts,
	}
	semaphores := make(map[int]Semaphore, len(Radii))

	var total float64
	for _, r := range Radii {
		sem, subscore := rate(r, counts[r])
		semaphores[r] = sem

		aporte := subscore * float64(weights[r])
		total += aporte

		res.Detalle = append(res.Detalle, RadiusDetail{
			RadiusM:     r,
			Generadores: counts[r],
			Semaforo:    sem,
			Peso:        weights[r],
			AporteScore: math.Round(aporte*100) / 100,
		})
	}

	res.Score = math.Round(total*10) / 10
	res.Clasificacion = classifyScore(res.Score)
	res.Diagnostico = diagnose(semaphores[100], semaphores[200])
	return res
}

// rate compares a count against a radius's thresholds.
func rate(radius, count int) (Semaphore, float64) {
	t := thresholds[radius]
	switch {
	case count <= t.rojoMax:
		return SemaforoRojo, 0.0
	case count <= t.amarilloMax:
		return SemaforoAmarillo, 0.5
	default:
		return SemaforoVerde, 1.0
	}
}

func classifyScore(score float64) Classification {
	switch {
	case score >= integradoMin:
		return ClasificacionIntegrado
	case score >= perifericoMin:
		return ClasificacionPeriferico
	default:
		return ClasificacionAislado
	}
}

// diagnose picks the executive diagnostic from the 100m and 200m
// semaphores specifically.
func diagnose(at100, at200 Semaphore) string {
	switch {
	case at100 == SemaforoRojo && at200 == SemaforoRojo:
		return diagAislado
	case at100 == SemaforoVerde || at200 == SemaforoVerde:
		return diagTemprana
	default:
		return diagParcial
	}
}
