// Package benchmark compares a candidate site against the regional
// equilibrium vectors derived from mature store performance.
package benchmark

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Vector-file keys that are scaler internals, not benchmark content.
var vectorBlacklist = map[string]bool{
	"scaler_center": true,
	"scaler_scale":  true,
	"feature_cols":  true,
}

// RegionVector is the equilibrium reference for one region.
type RegionVector struct {
	Region     string         `json:"region"`
	Equilibrio map[string]any `json:"vector_equilibrio"`
}

// Profile returns the per-variable equilibrium profile, or nil when the
// vector carries none.
func (v *RegionVector) Profile() map[string]any {
	profile, ok := v.Equilibrio["profile_equilibrio"].(map[string]any)
	if !ok {
		return nil
	}
	return profile
}

// Vectors is the full region vector file, loaded once and immutable.
type Vectors struct {
	byRegion map[string]RegionVector // normalized region name → vector
	names    []string                // original names, sorted
}

// accentFold strips diacritics so region names match regardless of
// accenting ("Bajío" vs "BAJIO").
var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeRegion uppercases, trims and strips accents from a region name.
func NormalizeRegion(region string) string {
	folded, _, err := transform.String(accentFold, region)
	if err != nil {
		folded = region
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}

// LoadVectors reads the region vector JSON file.
func LoadVectors(path string) (*Vectors, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "benchmark: read vectors %s", path)
	}

	var file map[string]map[string]any
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, eris.Wrapf(err, "benchmark: parse vectors %s", path)
	}

	v := &Vectors{byRegion: make(map[string]RegionVector, len(file))}
	for region, data := range file {
		equilibrio := make(map[string]any, len(data))
		for k, val := range data {
			if vectorBlacklist[k] {
				continue
			}
			equilibrio[k] = val
		}
		v.byRegion[NormalizeRegion(region)] = RegionVector{
			Region:     region,
			Equilibrio: equilibrio,
		}
		v.names = append(v.names, region)
	}
	sort.Strings(v.names)

	return v, nil
}

// Regions lists the available region names.
func (v *Vectors) Regions() []string {
	return v.names
}

// ForRegion returns the vector for a region, matching accent- and
// case-insensitively. Unknown regions are an input-shape error listing
// what is available.
func (v *Vectors) ForRegion(region string) (*RegionVector, error) {
	vec, ok := v.byRegion[NormalizeRegion(region)]
	if !ok {
		return nil, eris.Errorf("benchmark: region %q not found (available: %s)",
			region, strings.Join(v.names, ", "))
	}
	return &vec, nil
}
