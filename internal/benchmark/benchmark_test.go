package benchmark

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRegion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bajío", "BAJIO"},
		{"  metro sur ", "METRO SUR"},
		{"PENÍNSULA", "PENINSULA"},
		{"Ñoño", "NONO"},
		{"METRO NORTE", "METRO NORTE"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRegion(tt.in))
	}
}

func writeVectors(t *testing.T) string {
	t.Helper()
	data := `{
		"Metro Sur": {
			"profile_equilibrio": {"transacciones": 850.0, "ticket_promedio": 46.2},
			"scaler_center": [1, 2],
			"scaler_scale": [3, 4],
			"feature_cols": ["a", "b"]
		},
		"Bajío": {
			"profile_equilibrio": {"transacciones": 620.0}
		}
	}`
	path := filepath.Join(t.TempDir(), "vectors.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoadVectorsAndLookup(t *testing.T) {
	v, err := LoadVectors(writeVectors(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Bajío", "Metro Sur"}, v.Regions())

	// Accent- and case-insensitive lookup.
	vec, err := v.ForRegion("BAJIO")
	require.NoError(t, err)
	assert.Equal(t, "Bajío", vec.Region)

	vec, err = v.ForRegion("metro sur")
	require.NoError(t, err)
	assert.Equal(t, "Metro Sur", vec.Region)

	// Scaler internals are stripped.
	assert.NotContains(t, vec.Equilibrio, "scaler_center")
	assert.NotContains(t, vec.Equilibrio, "feature_cols")
	assert.Contains(t, vec.Equilibrio, "profile_equilibrio")
}

func TestForRegionUnknownListsAvailable(t *testing.T) {
	v, err := LoadVectors(writeVectors(t))
	require.NoError(t, err)

	_, err = v.ForRegion("OCCIDENTE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Metro Sur")
	assert.Contains(t, err.Error(), "Bajío")
}

func TestBuildTable(t *testing.T) {
	v, err := LoadVectors(writeVectors(t))
	require.NoError(t, err)
	vec, err := v.ForRegion("Metro Sur")
	require.NoError(t, err)

	payload := map[string]any{
		"tienda_cercanaTransacciones":   935.0,
		"tienda_cercanaTicket_Promedio": math.NaN(),
	}
	variables := []VariableMapping{
		{Label: "Transacciones", VectorKey: "transacciones", PayloadKey: "tienda_cercanaTransacciones"},
		{Label: "Ticket promedio", VectorKey: "ticket_promedio", PayloadKey: "tienda_cercanaTicket_Promedio"},
	}

	rows := BuildTable(payload, vec, variables)
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0].Benchmark)
	assert.Equal(t, 850.0, *rows[0].Benchmark)
	require.NotNil(t, rows[0].Punto)
	assert.Equal(t, 935.0, *rows[0].Punto)
	require.NotNil(t, rows[0].DeltaPct)
	assert.Equal(t, 10.0, *rows[0].DeltaPct)

	// NaN on the site side: value and delta are missing, benchmark stays.
	assert.Nil(t, rows[1].Punto)
	assert.Nil(t, rows[1].DeltaPct)
	require.NotNil(t, rows[1].Benchmark)
	assert.Equal(t, 46.0, *rows[1].Benchmark)
}

func TestSafeNumberListTakesFirst(t *testing.T) {
	got := safeNumber([]any{12.5, 99.0})
	require.NotNil(t, got)
	assert.Equal(t, 12.5, *got)

	assert.Nil(t, safeNumber([]any{}))
	assert.Nil(t, safeNumber("text"))
	assert.Nil(t, safeNumber(nil))
}
