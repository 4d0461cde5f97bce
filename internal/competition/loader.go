package competition

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tiendasneto/expansion-cli/internal/parse"
)

// Column names in the two outlet sources.
const (
	colCadena = "CADENA"
	colLat    = "LAT"
	colLon    = "LONG"

	colNombre   = "nombre"
	colLatitud  = "latitud"
	colLongitud = "longitud"
)

// LoadGenerales reads the general outlet table (CADENA/LAT/LONG columns).
func LoadGenerales(path string) ([]SourceRow, error) {
	return loadCSV(path, colCadena, colLat, colLon)
}

// LoadAurrera reads the curated own-chain Bodega Aurrera table
// (nombre/latitud/longitud columns).
func LoadAurrera(path string) ([]SourceRow, error) {
	return loadCSV(path, colNombre, colLatitud, colLongitud)
}

func loadCSV(path, nameCol, latCol, lonCol string) ([]SourceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "competition: open %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "competition: read header %s", path)
	}
	colIdx := parse.MapColumns(header)
	if !parse.HasColumns(colIdx, nameCol, latCol, lonCol) {
		return nil, eris.Errorf("competition: %s missing required columns (%s, %s, %s)",
			path, nameCol, latCol, lonCol)
	}

	var rows []SourceRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: exclude it, keep scanning.
			continue
		}
		rows = append(rows, SourceRow{
			Name: parse.Col(record, colIdx, nameCol),
			Lat:  parse.Col(record, colIdx, latCol),
			Lon:  parse.Col(record, colIdx, lonCol),
		})
	}

	zap.L().Debug("competition: outlet table loaded",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)

	return rows, nil
}
