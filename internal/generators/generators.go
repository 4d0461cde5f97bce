// Package generators summarizes nearby traffic generators (schools,
// markets, transit stops, ...) by executive category.
package generators

import (
	"math"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

// Place is one discovered location with its source category tags.
type Place struct {
	Name     string
	Types    []string
	Location geodesy.Point
}

// categoryOrder fixes the output ordering of the executive categories.
var categoryOrder = []string{
	"educacion", "salud", "transporte", "gobierno",
	"consumo", "alimentos", "recreacion",
}

// categories maps executive categories to the source place types that
// count toward them. A place may count toward several categories.
var categories = map[string][]string{
	"educacion":  {"primary_school", "secondary_school", "school", "university"},
	"salud":      {"hospital", "pharmacy", "drugstore"},
	"transporte": {"bus_station", "subway_station", "train_station", "transit_station"},
	"gobierno":   {"city_hall", "courthouse", "police", "fire_station"},
	"consumo":    {"supermarket", "convenience_store", "shopping_mall", "department_store"},
	"alimentos":  {"restaurant", "cafe", "bakery"},
	"recreacion": {"park", "stadium"},
}

// CategoryStats summarizes one category of traffic generators.
type CategoryStats struct {
	Categoria string  `json:"categoria"`
	Total     int     `json:"total_lugares"`
	MinDistKM float64 `json:"distancia_min_km"`
	AvgDistKM float64 `json:"distancia_prom_km"`
}

// Summary holds per-category stats in fixed category order. Categories
// with no matching places are omitted.
type Summary struct {
	Total      int             `json:"generadores_total"`
	Categorias []CategoryStats `json:"categorias"`
}

// Summarize classifies places against the category map and computes
// count/distance stats relative to the query point. An empty input yields
// an empty summary.
func Summarize(query geodesy.Point, places []Place) *Summary {
	summary := &Summary{}
	if len(places) == 0 {
		return summary
	}

	for _, cat := range categoryOrder {
		types := categories[cat]

		var count int
		minDist := math.Inf(1)
		var sumDist float64

		for _, p := range places {
			if !hasAnyType(p.Types, types) {
				continue
			}
			d := geodesy.DistanceKM(query, p.Location)
			count++
			sumDist += d
			if d < minDist {
				minDist = d
			}
		}

		if count == 0 {
			continue
		}

		summary.Categorias = append(summary.Categorias, CategoryStats{
			Categoria: cat,
			Total:     count,
			MinDistKM: math.Round(minDist*1e3) / 1e3,
			AvgDistKM: math.Round(sumDist/float64(count)*1e3) / 1e3,
		})
		summary.Total += count
	}

	return summary
}

func hasAnyType(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
