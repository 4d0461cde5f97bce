package registry

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/parse"
)

// Store-master column names as they appear in the source workbook.
const (
	colStoreID = "STORE_ID"
	colTienda  = "FCTIENDA"
	colRegion  = "FCREGION"
	colZona    = "FCZONA"
	colEstado  = "FCESTADO"
	colLat     = "FCLATITUD"
	colLon     = "FCLONGITUD"

	colExistenciaCosto   = "Existencia Costo"
	colExistenciaPiezas  = "Existencia Piezas"
	colVentaSinImpuestos = "Venta Sin Impuestos"
	colVentaCosto        = "Venta Costo"
	colVentaPiezas       = "Venta Piezas"
	colTransacciones     = "Transacciones"
	colTicketPromedio    = "Ticket Promedio"
	colPromCantidad      = "Prom Cantidad"
	colPromMontoSinImp   = "Prom Monto Sin Imp"
)

// LoadMaster reads the store-master workbook and returns an immutable
// registry. Rows without a usable store ID or coordinate pair are dropped;
// operating metrics that fail numeric coercion become nil on a kept record.
func LoadMaster(path string) (*Registry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: open master %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("registry: master %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("registry: master %s has no rows", path)
	}

	header := rowToStrings(sheet.Rows[0])
	colIdx := parse.MapColumns(header)
	if !parse.HasColumns(colIdx, colStoreID, colLat, colLon) {
		return nil, eris.Errorf("registry: master %s missing required columns (%s, %s, %s)",
			path, colStoreID, colLat, colLon)
	}

	var records []StoreRecord
	var dropped int

	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)

		id := parse.Int64(parse.Col(cells, colIdx, colStoreID))
		lat := parse.Float(parse.Col(cells, colIdx, colLat))
		lon := parse.Float(parse.Col(cells, colIdx, colLon))
		if id == nil || lat == nil || lon == nil {
			dropped++
			continue
		}

		records = append(records, StoreRecord{
			StoreID:  *id,
			Tienda:   parse.Col(cells, colIdx, colTienda),
			Region:   parse.Col(cells, colIdx, colRegion),
			Zona:     parse.Col(cells, colIdx, colZona),
			Estado:   parse.Col(cells, colIdx, colEstado),
			Location: geodesy.Point{Lat: *lat, Lon: *lon},
			Metrics: Metrics{
				ExistenciaCosto:   parse.Currency(parse.Col(cells, colIdx, colExistenciaCosto)),
				ExistenciaPiezas:  parse.Currency(parse.Col(cells, colIdx, colExistenciaPiezas)),
				VentaSinImpuestos: parse.Currency(parse.Col(cells, colIdx, colVentaSinImpuestos)),
				VentaCosto:        parse.Currency(parse.Col(cells, colIdx, colVentaCosto)),
				VentaPiezas:       parse.Currency(parse.Col(cells, colIdx, colVentaPiezas)),
				Transacciones:     parse.Currency(parse.Col(cells, colIdx, colTransacciones)),
				TicketPromedio:    parse.Currency(parse.Col(cells, colIdx, colTicketPromedio)),
				PromCantidad:      parse.Currency(parse.Col(cells, colIdx, colPromCantidad)),
				PromMontoSinImp:   parse.Currency(parse.Col(cells, colIdx, colPromMontoSinImp)),
			},
		})
	}

	if dropped > 0 {
		zap.L().Warn("registry: dropped master rows with unusable id or coordinates",
			zap.String("path", path),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(records)),
		)
	}

	zap.L().Info("registry: store master loaded",
		zap.String("path", path),
		zap.Int("stores", len(records)),
	)

	return New(records), nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
