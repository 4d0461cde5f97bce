package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendasneto/expansion-cli/internal/agent"
	"github.com/tiendasneto/expansion-cli/internal/competition"
	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/registry"
	"github.com/tiendasneto/expansion-cli/pkg/anthropic"
	"github.com/tiendasneto/expansion-cli/pkg/places"
)

// fakePlaces serves a fixed result set for every queried type in the
// byType map and nothing for the rest.
type fakePlaces struct {
	byType map[string][]places.Result
}

func (f *fakePlaces) NearbyByType(_ context.Context, _, _ float64, _ int, poiType string) ([]places.Result, error) {
	return f.byType[poiType], nil
}

// fakeModel always advances.
type fakeModel struct{}

func (fakeModel) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{
		Type: "text",
		Text: `{"decision": "AVANZAR", "explicacion": "Condiciones favorables."}`,
	}}}, nil
}

func testRegistry() *registry.Registry {
	return registry.New([]registry.StoreRecord{
		{StoreID: 1023, Tienda: "NETO PORTALES", Region: "METRO SUR", Estado: "CDMX",
			Location: geodesy.Point{Lat: 19.4100, Lon: -99.1400}},
		{StoreID: 2048, Tienda: "NETO LINDAVISTA", Region: "METRO NORTE", Estado: "CDMX",
			Location: geodesy.Point{Lat: 19.4900, Lon: -99.1200}},
	})
}

func TestEvaluateMinimal(t *testing.T) {
	e := New(Datasets{Registry: testRegistry()}, Options{})

	p, err := e.Evaluate(context.Background(), Request{
		IDUbicacion: "EXP-001",
		Lat:         19.4110,
		Lon:         -99.1405,
	})
	require.NoError(t, err)

	assert.Equal(t, "EXP-001", p["id_ubicacion"])
	assert.Equal(t, int64(1023), p["id_tienda_cercana"])
	assert.Equal(t, "METRO SUR", p["region"])
	assert.Equal(t, false, p["INEGI_FOUND"])
	assert.Equal(t, 0, p["competencia_total"])

	// No places client: those stages stay out of the payload entirely.
	assert.NotContains(t, p, "total_lugares")
	assert.NotContains(t, p, "integracion_score")
	assert.NotContains(t, p, "decision_modelo_1")
}

func TestEvaluateInvalidCoordinates(t *testing.T) {
	e := New(Datasets{Registry: testRegistry()}, Options{})

	_, err := e.Evaluate(context.Background(), Request{Lat: 123.0, Lon: -99.1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid coordinates")
}

func TestEvaluateEmptyRegistry(t *testing.T) {
	e := New(Datasets{Registry: registry.New(nil)}, Options{})

	_, err := e.Evaluate(context.Background(), Request{Lat: 19.41, Lon: -99.14})
	assert.ErrorIs(t, err, registry.ErrEmptyRegistry)
}

func TestEvaluateCompetitionAndMeta(t *testing.T) {
	data := Datasets{
		Registry: testRegistry(),
		Generales: []competition.SourceRow{
			{Name: "Bodega Aurrera Express", Lat: "19.4112", Lon: "-99.1406"},
			{Name: "Tiendas 3B Centro", Lat: "19.4108", Lon: "-99.1404"},
			{Name: "Neto Portales", Lat: "19.4110", Lon: "-99.1405"},
		},
	}
	e := New(data, Options{})

	p, err := e.Evaluate(context.Background(), Request{
		IDUbicacion: "EXP-002",
		Lat:         19.4110,
		Lon:         -99.1405,
		TipoSitio:   "esquina",
	})
	require.NoError(t, err)

	// Own brand excluded, the two competitors counted.
	assert.Equal(t, 2, p["competencia_total"])
	assert.Equal(t, 1, p["competencia_bodega_aurrera"])
	assert.Equal(t, 1, p["competencia_tiendas_3b"])
	assert.Equal(t, "esquina", p["tipo_sitio"])
	assert.NotContains(t, p, "telefono")
}

func TestEvaluateWithPlaces(t *testing.T) {
	shared := places.Result{
		PlaceID: "shared-1", Name: "Farmacia del Centro",
		Lat: 19.41102, Lon: -99.14052, Types: []string{"pharmacy", "store"},
	}
	client := &fakePlaces{byType: map[string][]places.Result{
		"pharmacy": {shared},
		"store":    {shared},
		"supermarket": {{
			PlaceID: "super-1", Name: "Soriana",
			Lat: 19.41110, Lon: -99.14060, Types: []string{"supermarket"},
		}},
	}}

	e := New(Datasets{Registry: testRegistry()}, Options{Places: client})
	p, err := e.Evaluate(context.Background(), Request{
		IDUbicacion: "EXP-003",
		Lat:         19.4110,
		Lon:         -99.1405,
	})
	require.NoError(t, err)

	// Per-type counts keep the duplicate; the totals are raw.
	assert.Equal(t, 1, p["pharmacy"])
	assert.Equal(t, 1, p["store"])
	assert.Equal(t, 1, p["supermarket"])
	assert.Equal(t, 3, p["total_lugares"])

	// The generator summary deduplicates by place ID: one pharmacy, one
	// supermarket.
	assert.Equal(t, 2, p["generadores_total"])
	assert.Equal(t, 1, p["generadores_salud_count"])
	assert.Equal(t, 1, p["generadores_consumo_count"])

	// All places sit within meters of the site, so every ladder radius
	// counts 3 candidates: yellow at 20 m, red everywhere else.
	assert.Equal(t, 3, p["integracion_20m"])
	assert.Equal(t, 3, p["integracion_500m"])
	assert.Equal(t, 2.5, p["integracion_score"])
	assert.Equal(t, "AISLADO", p["integracion_clasificacion"])
}

func TestEvaluateWithAgent(t *testing.T) {
	e := New(Datasets{Registry: testRegistry()}, Options{
		Agent: agent.NewEvaluator(fakeModel{}, "claude-sonnet-4-5-20250929"),
	})

	p, err := e.Evaluate(context.Background(), Request{
		IDUbicacion: "EXP-004",
		Lat:         19.4110,
		Lon:         -99.1405,
	})
	require.NoError(t, err)

	assert.Equal(t, "AVANZAR", p["decision_modelo_1"])
	assert.Equal(t, "AVANZAR", p["decision_modelo_2"])
	assert.Equal(t, "Condiciones favorables.", p["explicacion_1"])
}
