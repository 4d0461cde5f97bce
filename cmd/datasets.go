package main

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tiendasneto/expansion-cli/internal/benchmark"
	"github.com/tiendasneto/expansion-cli/internal/competition"
	"github.com/tiendasneto/expansion-cli/internal/config"
	"github.com/tiendasneto/expansion-cli/internal/evaluation"
	"github.com/tiendasneto/expansion-cli/internal/municipio"
	"github.com/tiendasneto/expansion-cli/internal/registry"
)

// loadDatasets reads every dataset into the immutable evaluation
// context. The store master is required; the others degrade their stage
// with a warning when the path does not exist.
func loadDatasets(dc config.DataConfig) (evaluation.Datasets, error) {
	var data evaluation.Datasets

	reg, err := registry.LoadMaster(dc.MasterXLSX)
	if err != nil {
		return data, eris.Wrapf(err, "load store master %s", dc.MasterXLSX)
	}
	data.Registry = reg

	if exists(dc.ShapefileDir) {
		layer, err := municipio.LoadDir(dc.ShapefileDir)
		if err != nil {
			return data, eris.Wrapf(err, "load shapefiles %s", dc.ShapefileDir)
		}
		data.Layer = layer
	} else {
		zap.L().Warn("shapefile dir missing, municipality resolution disabled",
			zap.String("dir", dc.ShapefileDir))
	}

	if exists(dc.GeneralesCSV) {
		rows, err := competition.LoadGenerales(dc.GeneralesCSV)
		if err != nil {
			return data, eris.Wrapf(err, "load outlet table %s", dc.GeneralesCSV)
		}
		data.Generales = rows
	} else {
		zap.L().Warn("general outlet table missing", zap.String("path", dc.GeneralesCSV))
	}

	if exists(dc.AurreraCSV) {
		rows, err := competition.LoadAurrera(dc.AurreraCSV)
		if err != nil {
			return data, eris.Wrapf(err, "load outlet table %s", dc.AurreraCSV)
		}
		data.Aurrera = rows
	} else {
		zap.L().Warn("curated outlet table missing", zap.String("path", dc.AurreraCSV))
	}

	if exists(dc.VectorsJSON) {
		vectors, err := benchmark.LoadVectors(dc.VectorsJSON)
		if err != nil {
			return data, eris.Wrapf(err, "load region vectors %s", dc.VectorsJSON)
		}
		data.Vectors = vectors
	} else {
		zap.L().Warn("region vectors missing, benchmark tables disabled",
			zap.String("path", dc.VectorsJSON))
	}

	return data, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
