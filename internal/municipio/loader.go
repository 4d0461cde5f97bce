package municipio

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadDir loads every shapefile in dir into one layer, in file-name order.
// The INEGI municipal layer ships as one shapefile per download but the
// loader tolerates a split-by-state folder.
func LoadDir(dir string) (*Layer, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.shp"))
	if err != nil {
		return nil, eris.Wrapf(err, "municipio: glob %s", dir)
	}
	if len(paths) == 0 {
		return nil, eris.Errorf("municipio: no shapefiles in %s", dir)
	}
	sort.Strings(paths)

	var polygons []*Polygon
	for _, path := range paths {
		polys, err := loadShapefile(path)
		if err != nil {
			return nil, err
		}
		polygons = append(polygons, polys...)
	}

	zap.L().Info("municipio: admin layer loaded",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("polygons", len(polygons)),
	)

	return NewLayer(polygons), nil
}

func loadShapefile(path string) ([]*Polygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "municipio: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var polygons []*Polygon
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		sp, ok := shape.(*shp.Polygon)
		if !ok || sp == nil {
			skipped++
			continue
		}

		mp := polygonToMultiPolygon(sp)
		if mp == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				attrs[name] = val
			}
		}

		polygons = append(polygons, NewPolygon(mp, attrs))
	}

	if skipped > 0 {
		zap.L().Debug("municipio: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return polygons, nil
}

// polygonToMultiPolygon converts a shapefile polygon to a go-geom
// multipolygon, one single-ring polygon per part. Malformed parts are
// dropped; nil is returned when nothing usable remains.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("municipio: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("municipio: skipping malformed part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
