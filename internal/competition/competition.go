// Package competition finds, deduplicates and classifies competing outlets
// within a radius of a candidate site.
package competition

import (
	"math"
	"regexp"
	"strings"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/parse"
)

// Category is the executive competitor classification.
type Category string

const (
	CategoryBodegaAurrera Category = "BODEGA_AURRERA"
	CategoryTiendas3B     Category = "TIENDAS_3B"
	CategoryNeto          Category = "NETO"
	CategoryOtras         Category = "OTRAS"
)

// classifyRules are ordered first-match-wins substring rules over the
// normalized name. Order matters: names can carry multiple chain tokens.
var classifyRules = []struct {
	substr   string
	category Category
}{
	{"AURRERA", CategoryBodegaAurrera},
	{"3B", CategoryTiendas3B},
	{"NETO", CategoryNeto},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize uppercases, trims and collapses internal whitespace. The
// normalized name is the classification and deduplication key.
func Normalize(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	return whitespaceRun.ReplaceAllString(s, " ")
}

// Classify maps a raw outlet name to exactly one category.
func Classify(name string) Category {
	n := Normalize(name)
	for _, rule := range classifyRules {
		if strings.Contains(n, rule.substr) {
			return rule.category
		}
	}
	return CategoryOtras
}

// SourceRow is one raw row from an outlet table. Coordinates arrive as
// strings; rows whose coordinates fail numeric coercion are silently
// excluded from the analysis.
type SourceRow struct {
	Name string
	Lat  string
	Lon  string
}

// Competitor is one classified outlet within the search radius.
type Competitor struct {
	Categoria Category `json:"categoria"`
	Nombre    string   `json:"nombre"`
	DistKM    float64  `json:"dist_km"`
}

// Counts summarizes bucket sizes.
type Counts struct {
	Total         int `json:"total"`
	BodegaAurrera int `json:"bodega_aurrera"`
	Tiendas3B     int `json:"tiendas_3b"`
	Otras         int `json:"otras"`
}

// Summary is the radius analysis result: per-chain buckets in source scan
// order plus counts. The chain's own NETO outlets are excluded.
type Summary struct {
	BodegaAurrera []Competitor `json:"bodega_aurrera"`
	Tiendas3B     []Competitor `json:"tiendas_3b"`
	Otras         []Competitor `json:"otras_competencias"`
	Resumen       Counts       `json:"competencia_resumen"`
}

// dedupKey identifies a physical outlet: normalized name plus coordinates
// rounded to 4 decimals. Noisy sources repeat the same location; distinct
// outlets sharing a name at different rounded coordinates stay separate.
type dedupKey struct {
	name     string
	lat, lon float64
}

// FindCompetitors scans both source tables for outlets within radiusM
// meters of query. The general table is classified by name rules; the
// curated own-chain table is always BODEGA_AURRERA. Empty tables are valid
// input and yield empty buckets.
func FindCompetitors(query geodesy.Point, radiusM int, generales, aurrera []SourceRow) *Summary {
	radiusKM := float64(radiusM) / 1000.0
	seen := make(map[dedupKey]struct{})
	summary := &Summary{}

	add := func(c Competitor) {
		switch c.Categoria {
		case CategoryBodegaAurrera:
			summary.BodegaAurrera = append(summary.BodegaAurrera, c)
			summary.Resumen.BodegaAurrera++
		case CategoryTiendas3B:
			summary.Tiendas3B = append(summary.Tiendas3B, c)
			summary.Resumen.Tiendas3B++
		default:
			summary.Otras = append(summary.Otras, c)
			summary.Resumen.Otras++
		}
		summary.Resumen.Total++
	}

	for _, row := range generales {
		c, ok := inRadius(query, radiusKM, row, seen)
		if !ok {
			continue
		}
		c.Categoria = Classify(c.Nombre)
		if c.Categoria == CategoryNeto {
			// Own brand: never reported as competition.
			continue
		}
		add(c)
	}

	for _, row := range aurrera {
		c, ok := inRadius(query, radiusKM, row, seen)
		if !ok {
			continue
		}
		c.Categoria = CategoryBodegaAurrera
		add(c)
	}

	return summary
}

// inRadius coerces a row's coordinates, applies the radius filter and the
// dedup set, and returns the candidate with its normalized name.
func inRadius(query geodesy.Point, radiusKM float64, row SourceRow, seen map[dedupKey]struct{}) (Competitor, bool) {
	lat := parse.Float(row.Lat)
	lon := parse.Float(row.Lon)
	if lat == nil || lon == nil {
		return Competitor{}, false
	}

	dist := geodesy.DistanceKM(query, geodesy.Point{Lat: *lat, Lon: *lon})
	if dist > radiusKM {
		return Competitor{}, false
	}

	name := Normalize(row.Name)
	key := dedupKey{
		name: name,
		lat:  math.Round(*lat*1e4) / 1e4,
		lon:  math.Round(*lon*1e4) / 1e4,
	}
	if _, dup := seen[key]; dup {
		return Competitor{}, false
	}
	seen[key] = struct{}{}

	return Competitor{
		Nombre: name,
		DistKM: math.Round(dist*1e3) / 1e3,
	}, true
}
