// Package evaluation orchestrates one full site evaluation: nearest
// store, municipality, competition, places, integration, benchmark and
// the model verdict, assembled into the flat result payload.
package evaluation

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tiendasneto/expansion-cli/internal/agent"
	"github.com/tiendasneto/expansion-cli/internal/benchmark"
	"github.com/tiendasneto/expansion-cli/internal/competition"
	"github.com/tiendasneto/expansion-cli/internal/generators"
	"github.com/tiendasneto/expansion-cli/internal/geodesy"
	"github.com/tiendasneto/expansion-cli/internal/integration"
	"github.com/tiendasneto/expansion-cli/internal/municipio"
	"github.com/tiendasneto/expansion-cli/internal/payload"
	"github.com/tiendasneto/expansion-cli/internal/registry"
	"github.com/tiendasneto/expansion-cli/pkg/places"
)

// Default search radii, in meters.
const (
	DefaultCompetitionRadiusM = 500
	DefaultPlacesRadiusM      = 500
)

// benchmarkVariables maps the executive comparison table to the
// equilibrium profile and the flat payload keys.
var benchmarkVariables = []benchmark.VariableMapping{
	{Label: "Transacciones", VectorKey: "transacciones", PayloadKey: "tienda_cercanaTransacciones"},
	{Label: "Ticket promedio", VectorKey: "ticket_promedio", PayloadKey: "tienda_cercanaTicket_Promedio"},
	{Label: "Venta sin impuestos", VectorKey: "venta_sin_impuestos", PayloadKey: "tienda_cercanaVenta_Sin_Impuestos"},
	{Label: "Venta piezas", VectorKey: "venta_piezas", PayloadKey: "tienda_cercanaVenta_Piezas"},
	{Label: "Existencia costo", VectorKey: "existencia_costo", PayloadKey: "tienda_cercanaExistencia_Costo"},
}

// Datasets is the immutable data context shared by all evaluations.
// Load once at startup. Registry is required; the other members may be
// nil or empty, disabling or degrading their stage.
type Datasets struct {
	Registry  *registry.Registry
	Layer     *municipio.Layer
	Generales []competition.SourceRow
	Aurrera   []competition.SourceRow
	Vectors   *benchmark.Vectors
}

// Options are the per-process evaluation settings.
type Options struct {
	Places             places.Client    // nil disables places, generators and integration
	Agent              *agent.Evaluator // nil disables the model verdict
	CompetitionRadiusM int
	PlacesRadiusM      int
}

// Evaluator runs site evaluations over a fixed dataset context.
type Evaluator struct {
	data Datasets
	opts Options
}

// Request is one candidate site.
type Request struct {
	IDUbicacion        string
	Lat                float64
	Lon                float64
	Telefono           string
	TipoSitio          string
	TipoAdquisicion    string
	UbicacionEnManzana string
}

// New builds an evaluator. Zero radii fall back to the defaults.
func New(data Datasets, opts Options) *Evaluator {
	if opts.CompetitionRadiusM <= 0 {
		opts.CompetitionRadiusM = DefaultCompetitionRadiusM
	}
	if opts.PlacesRadiusM <= 0 {
		opts.PlacesRadiusM = DefaultPlacesRadiusM
	}
	return &Evaluator{data: data, opts: opts}
}

// Evaluate runs the full pipeline for one site and returns the flat
// payload. Data-quality gaps (no municipality, no competitors, no
// places) degrade the payload; only invalid input, an empty registry or
// upstream API failures are errors.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (map[string]any, error) {
	query := geodesy.Point{Lat: req.Lat, Lon: req.Lon}
	if !query.Valid() {
		return nil, eris.Errorf("evaluation: invalid coordinates (%f, %f)", req.Lat, req.Lon)
	}

	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("run_id", runID),
		zap.String("id_ubicacion", req.IDUbicacion),
		zap.Float64("lat", req.Lat),
		zap.Float64("lon", req.Lon),
	)
	log.Info("evaluation started")

	parts := payload.Parts{Query: query}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nearest, err := e.data.Registry.FindNearest(query)
		if err != nil {
			return err
		}
		parts.Nearest = nearest
		return nil
	})
	g.Go(func() error {
		if e.data.Layer == nil {
			parts.Municipio = municipio.NotFound()
			return nil
		}
		parts.Municipio = e.data.Layer.Resolve(query)
		return nil
	})
	g.Go(func() error {
		parts.Competencia = competition.FindCompetitors(
			query, e.opts.CompetitionRadiusM, e.data.Generales, e.data.Aurrera)
		return nil
	})
	g.Go(func() error {
		return e.runPlaces(gctx, query, &parts)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := payload.Build(parts)
	putRequestMeta(p, req)

	if e.opts.Agent != nil {
		if err := e.runAgent(ctx, p, parts.Nearest.Region); err != nil {
			return nil, err
		}
	}

	log.Info("evaluation finished",
		zap.Bool("municipio_found", parts.Municipio != nil && parts.Municipio.Found),
		zap.Int("competidores", parts.Competencia.Resumen.Total),
	)
	return p, nil
}

// runPlaces fetches the surrounding places and derives the generator
// summary and the integration score from them.
func (e *Evaluator) runPlaces(ctx context.Context, query geodesy.Point, parts *payload.Parts) error {
	if e.opts.Places == nil {
		return nil
	}

	byType, err := places.FetchAll(ctx, e.opts.Places, query.Lat, query.Lon, e.opts.PlacesRadiusM)
	if err != nil {
		return err
	}

	conteo := make(map[string]int, len(byType))
	seen := make(map[string]bool)
	var unique []generators.Place
	var candidates []integration.Candidate

	qLat := strconv.FormatFloat(query.Lat, 'f', -1, 64)
	qLon := strconv.FormatFloat(query.Lon, 'f', -1, 64)

	for poiType, results := range byType {
		conteo[poiType] = len(results)
		for _, r := range results {
			candidates = append(candidates, integration.Candidate{
				QueryLat: qLat,
				QueryLon: qLon,
				PlaceLat: strconv.FormatFloat(r.Lat, 'f', -1, 64),
				PlaceLon: strconv.FormatFloat(r.Lon, 'f', -1, 64),
			})
			// The same place shows up under every type it matches;
			// the generator summary wants it once.
			if seen[r.PlaceID] {
				continue
			}
			seen[r.PlaceID] = true
			unique = append(unique, generators.Place{
				Name:     r.Name,
				Types:    r.Types,
				Location: geodesy.Point{Lat: r.Lat, Lon: r.Lon},
			})
		}
	}

	parts.PlacesConteo = conteo
	parts.Generadores = generators.Summarize(query, unique)
	parts.Integracion = integration.Score(candidates)
	return nil
}

// runAgent builds the benchmark tables and merges the dual model
// verdict into the payload. A region without a vector skips the verdict
// with a warning instead of failing the evaluation.
func (e *Evaluator) runAgent(ctx context.Context, p map[string]any, region string) error {
	var vector *benchmark.RegionVector
	if e.data.Vectors != nil {
		v, err := e.data.Vectors.ForRegion(region)
		if err != nil {
			zap.L().Warn("no benchmark vector for region, skipping model verdict",
				zap.String("region", region))
			return nil
		}
		vector = v
	}

	in := agent.PromptInput{
		Payload: p,
		Vector:  vector,
	}
	if vector != nil {
		in.TablaGlobal = benchmark.BuildTable(p, vector, benchmarkVariables)
	}
	if mature := matureVector(vector); mature != nil {
		in.TablaMaduras = benchmark.BuildTable(p, mature, benchmarkVariables)
	}

	verdict, err := e.opts.Agent.EvaluateDual(ctx, agent.BuildPrompt(in))
	if err != nil {
		return err
	}
	for k, v := range verdict {
		p[k] = v
	}
	return nil
}

// matureVector lifts the mature-store profile, when the region carries
// one, into a vector the table builder can consume.
func matureVector(v *benchmark.RegionVector) *benchmark.RegionVector {
	if v == nil {
		return nil
	}
	mature, ok := v.Equilibrio["profile_maduras"].(map[string]any)
	if !ok {
		return nil
	}
	return &benchmark.RegionVector{
		Region:     v.Region,
		Equilibrio: map[string]any{"profile_equilibrio": mature},
	}
}

func putRequestMeta(p map[string]any, req Request) {
	p["id_ubicacion"] = req.IDUbicacion
	if req.Telefono != "" {
		p["telefono"] = req.Telefono
	}
	if req.TipoSitio != "" {
		p["tipo_sitio"] = req.TipoSitio
	}
	if req.TipoAdquisicion != "" {
		p["tipo_adquisicion"] = req.TipoAdquisicion
	}
	if req.UbicacionEnManzana != "" {
		p["ubicacion_en_manzana"] = req.UbicacionEnManzana
	}
}
