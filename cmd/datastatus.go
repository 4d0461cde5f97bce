package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tiendasneto/expansion-cli/internal/municipio"
)

var datastatusCmd = &cobra.Command{
	Use:   "datastatus",
	Short: "Load every dataset and report record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadDatasets(cfg.Data)
		if err != nil {
			return err
		}

		fmt.Printf("store master:      %d records (%s)\n", data.Registry.Len(), cfg.Data.MasterXLSX)
		fmt.Printf("municipal layer:   %s\n", layerStatus(data.Layer))
		fmt.Printf("general outlets:   %d rows (%s)\n", len(data.Generales), cfg.Data.GeneralesCSV)
		fmt.Printf("curated outlets:   %d rows (%s)\n", len(data.Aurrera), cfg.Data.AurreraCSV)
		if data.Vectors != nil {
			fmt.Printf("region vectors:    %d regions (%s)\n", len(data.Vectors.Regions()), cfg.Data.VectorsJSON)
		} else {
			fmt.Println("region vectors:    not loaded")
		}

		return nil
	},
}

func layerStatus(layer *municipio.Layer) string {
	if layer == nil {
		return "not loaded"
	}
	return fmt.Sprintf("%d polygons", layer.Len())
}

func init() {
	rootCmd.AddCommand(datastatusCmd)
}
