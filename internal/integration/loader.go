package integration

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tiendasneto/expansion-cli/internal/parse"
)

// Required coordinate columns in the raw places export.
const (
	colQueryLat = "query_lat"
	colQueryLon = "query_lon"
	colPlaceLat = "place_lat"
	colPlaceLon = "place_lon"
)

// LoadCandidatesCSV reads a raw places export. Header cells are cleaned of
// BOM artifacts; malformed lines are skipped. Missing coordinate columns
// are an input-shape error.
func LoadCandidatesCSV(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "integration: open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "integration: read header %s", path)
	}
	for i, col := range header {
		header[i] = strings.TrimPrefix(strings.TrimPrefix(col, "\uFEFF"), "ï»¿")
	}

	colIdx := parse.MapColumns(header)
	if !parse.HasColumns(colIdx, colQueryLat, colQueryLon, colPlaceLat, colPlaceLon) {
		return nil, eris.Errorf("integration: %s missing coordinate columns (%s, %s, %s, %s)",
			path, colQueryLat, colQueryLon, colPlaceLat, colPlaceLon)
	}

	var candidates []Candidate
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{
			QueryLat: parse.Col(record, colIdx, colQueryLat),
			QueryLon: parse.Col(record, colIdx, colQueryLon),
			PlaceLat: parse.Col(record, colIdx, colPlaceLat),
			PlaceLon: parse.Col(record, colIdx, colPlaceLon),
		})
	}

	return candidates, nil
}
