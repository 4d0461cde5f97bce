package generators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendasneto/expansion-cli/internal/geodesy"
)

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(geodesy.Point{Lat: 19.41, Lon: -99.14}, nil)
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.Categorias)
}

func TestSummarizeCategories(t *testing.T) {
	query := geodesy.Point{Lat: 19.41, Lon: -99.14}
	places := []Place{
		{Name: "Primaria Juarez", Types: []string{"primary_school", "school"},
			Location: geodesy.Point{Lat: 19.4105, Lon: -99.1402}},
		{Name: "UNAM", Types: []string{"university"},
			Location: geodesy.Point{Lat: 19.4150, Lon: -99.1450}},
		{Name: "Farmacia Guadalajara", Types: []string{"pharmacy", "store"},
			Location: geodesy.Point{Lat: 19.4102, Lon: -99.1398}},
		{Name: "Metro Portales", Types: []string{"subway_station", "transit_station"},
			Location: geodesy.Point{Lat: 19.4090, Lon: -99.1410}},
		{Name: "Sin categoria", Types: []string{"car_wash"},
			Location: geodesy.Point{Lat: 19.4100, Lon: -99.1400}},
	}

	sum := Summarize(query, places)

	// car_wash maps to no executive category.
	assert.Equal(t, 4, sum.Total)
	require.Len(t, sum.Categorias, 3)

	// Fixed category order: educacion, salud, transporte.
	assert.Equal(t, "educacion", sum.Categorias[0].Categoria)
	assert.Equal(t, 2, sum.Categorias[0].Total)
	assert.Equal(t, "salud", sum.Categorias[1].Categoria)
	assert.Equal(t, 1, sum.Categorias[1].Total)
	assert.Equal(t, "transporte", sum.Categorias[2].Categoria)

	// Min distance is the closest of the two schools.
	edu := sum.Categorias[0]
	assert.Less(t, edu.MinDistKM, edu.AvgDistKM)
	assert.Greater(t, edu.MinDistKM, 0.0)
}

func TestSummarizePlaceCountsTowardMultipleCategories(t *testing.T) {
	query := geodesy.Point{Lat: 19.41, Lon: -99.14}
	places := []Place{
		// Both salud (pharmacy) and consumo (convenience_store).
		{Name: "Farmacia con mini super", Types: []string{"pharmacy", "convenience_store"},
			Location: geodesy.Point{Lat: 19.4102, Lon: -99.1398}},
	}

	sum := Summarize(query, places)
	assert.Equal(t, 2, sum.Total)
	require.Len(t, sum.Categorias, 2)
	assert.Equal(t, "salud", sum.Categorias[0].Categoria)
	assert.Equal(t, "consumo", sum.Categorias[1].Categoria)
}
