package competition

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

var site = geodesy.Point{Lat: 19.41, Lon: -99.14}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BODEGA AURRERA  CENTRO", "BODEGA AURRERA CENTRO"},
		{"  tiendas 3b   sur ", "TIENDAS 3B SUR"},
		{"Neto\t Express", "NETO EXPRESS"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestClassifyOrderedRules(t *testing.T) {
	tests := []struct {
		name string
		want Category
	}{
		{"Bodega Aurrera Express", CategoryBodegaAurrera},
		{"TIENDAS 3B CENTRO", CategoryTiendas3B},
		{"TIENDAS NETO SUR", CategoryNeto},
		{"OXXO INSURGENTES", CategoryOtras},
		// Multiple tokens: first rule wins.
		{"AURRERA 3B NETO", CategoryBodegaAurrera},
		{"3B NETO", CategoryTiendas3B},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name))
		})
	}
}

func TestClassifyIdempotentOnNormalized(t *testing.T) {
	raw := "bodega  AURRERA   centro"
	assert.Equal(t, Classify(raw), Classify(Normalize(raw)))
}

func TestFindCompetitorsBucketsAndCounts(t *testing.T) {
	generales := []SourceRow{
		{Name: "Bodega Aurrera  Centro", Lat: "19.4105", Lon: "-99.1402"},
		{Name: "Tiendas 3B Portales", Lat: "19.4110", Lon: "-99.1395"},
		{Name: "Tiendas Neto Sur", Lat: "19.4102", Lon: "-99.1401"}, // own brand, excluded
		{Name: "Abarrotes Lupita", Lat: "19.4108", Lon: "-99.1407"},
		{Name: "Soriana Lejos", Lat: "19.50", Lon: "-99.20"}, // out of radius
	}
	aurrera := []SourceRow{
		{Name: "BA Portales", Lat: "19.4095", Lon: "-99.1410"},
	}

	sum := FindCompetitors(site, 500, generales, aurrera)

	assert.Len(t, sum.BodegaAurrera, 2)
	assert.Len(t, sum.Tiendas3B, 1)
	assert.Len(t, sum.Otras, 1)

	assert.Equal(t, 4, sum.Resumen.Total)
	assert.Equal(t, 2, sum.Resumen.BodegaAurrera)
	assert.Equal(t, 1, sum.Resumen.Tiendas3B)
	assert.Equal(t, 1, sum.Resumen.Otras)

	// Names are normalized in the output.
	assert.Equal(t, "BODEGA AURRERA CENTRO", sum.BodegaAurrera[0].Nombre)
	assert.Greater(t, sum.BodegaAurrera[0].DistKM, 0.0)
	assert.LessOrEqual(t, sum.BodegaAurrera[0].DistKM, 0.5)
}

func TestFindCompetitorsOwnChainTableAlwaysAurrera(t *testing.T) {
	aurrera := []SourceRow{
		// Name carries no chain token at all; curated source wins.
		{Name: "Sucursal Portales", Lat: "19.4105", Lon: "-99.1402"},
	}

	sum := FindCompetitors(site, 500, nil, aurrera)
	require.Len(t, sum.BodegaAurrera, 1)
	assert.Equal(t, CategoryBodegaAurrera, sum.BodegaAurrera[0].Categoria)
}

func TestFindCompetitorsDeduplication(t *testing.T) {
	generales := []SourceRow{
		{Name: "Bodega Aurrera Centro", Lat: "19.41051", Lon: "-99.14022"},
		// Same normalized name, same coordinates at 4 decimals: collapses.
		{Name: "bodega  aurrera centro", Lat: "19.41049", Lon: "-99.14018"},
		// Same name, 3rd decimal differs: distinct outlet.
		{Name: "Bodega Aurrera Centro", Lat: "19.413", Lon: "-99.1402"},
	}

	sum := FindCompetitors(site, 1000, generales, nil)
	assert.Len(t, sum.BodegaAurrera, 2)
}

func TestFindCompetitorsDropsUnparsableCoordinates(t *testing.T) {
	generales := []SourceRow{
		{Name: "Bodega Aurrera Centro", Lat: "not-a-number", Lon: "-99.1402"},
		{Name: "Bodega Aurrera Sur", Lat: "19.4105", Lon: ""},
	}

	sum := FindCompetitors(site, 500, generales, nil)
	assert.Equal(t, 0, sum.Resumen.Total)
}

func TestFindCompetitorsEmptyTables(t *testing.T) {
	sum := FindCompetitors(site, 500, nil, nil)
	assert.Empty(t, sum.BodegaAurrera)
	assert.Empty(t, sum.Tiendas3B)
	assert.Empty(t, sum.Otras)
	assert.Equal(t, 0, sum.Resumen.Total)
}

func TestLoadGenerales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generales.csv")
	data := "CADENA,LAT,LONG\nBodega Aurrera Centro,19.4105,-99.1402\nOXXO,19.4110,-99.1395\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	rows, err := LoadGenerales(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bodega Aurrera Centro", rows[0].Name)
	assert.Equal(t, "19.4105", rows[0].Lat)
}

func TestLoadGeneralesMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generales.csv")
	require.NoError(t, os.WriteFile(path, []byte("NOMBRE,X,Y\na,1,2\n"), 0o644))

	_, err := LoadGenerales(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}
