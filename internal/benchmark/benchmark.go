package benchmark

import (
	"math"
)

// VariableMapping binds one report label to its key in the equilibrium
// profile and its key in the flat site payload.
type VariableMapping struct {
	Label      string
	VectorKey  string
	PayloadKey string
}

// Row is one line of the site-vs-region comparison table. Nil values mean
// the underlying number was missing on either side.
type Row struct {
	Variable  string   `json:"variable"`
	Benchmark *float64 `json:"benchmark_regional"`
	Punto     *float64 `json:"punto_candidato"`
	DeltaPct  *float64 `json:"delta_vs_benchmark_pct"`
}

// BuildTable compares the site payload against a region's equilibrium
// profile, variable by variable. Values are rounded to integers for the
// executive table; the delta is a percentage relative to the benchmark.
func BuildTable(payload map[string]any, vector *RegionVector, variables []VariableMapping) []Row {
	profile := vector.Profile()

	rows := make([]Row, 0, len(variables))
	for _, v := range variables {
		punto := safeNumber(payload[v.PayloadKey])
		bench := safeNumber(profile[v.VectorKey])

		var delta *float64
		if punto != nil && bench != nil && *bench != 0 {
			d := math.Round((*punto - *bench) / *bench * 100)
			delta = &d
		}

		rows = append(rows, Row{
			Variable:  v.Label,
			Benchmark: roundPtr(bench),
			Punto:     roundPtr(punto),
			DeltaPct:  delta,
		})
	}
	return rows
}

// safeNumber extracts a usable float from payload/profile values: plain
// numbers, integer types, or the first element of a list. NaN and Inf
// count as missing.
func safeNumber(v any) *float64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case []any:
		if len(x) == 0 {
			return nil
		}
		return safeNumber(x[0])
	default:
		return nil
	}
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v)
	return &r
}
