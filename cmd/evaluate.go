package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tiendasneto/expansion-cli/internal/agent"
	"github.com/tiendasneto/expansion-cli/internal/evaluation"
	"github.com/tiendasneto/expansion-cli/pkg/anthropic"
	"github.com/tiendasneto/expansion-cli/pkg/places"
)

var (
	evalID        string
	evalLat       float64
	evalLon       float64
	evalTipoSitio string
	evalNoPlaces  bool
	evalNoAgent   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run one site evaluation and print the flat payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("evaluate"); err != nil {
			return err
		}

		data, err := loadDatasets(cfg.Data)
		if err != nil {
			return err
		}

		opts, err := buildOptions(evalNoPlaces, evalNoAgent)
		if err != nil {
			return err
		}

		e := evaluation.New(data, opts)
		payload, err := e.Evaluate(cmd.Context(), evaluation.Request{
			IDUbicacion: evalID,
			Lat:         evalLat,
			Lon:         evalLon,
			TipoSitio:   evalTipoSitio,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	},
}

// buildOptions wires the optional external clients from config. Places
// and the model verdict are on by default and require their API keys.
func buildOptions(noPlaces, noAgent bool) (evaluation.Options, error) {
	opts := evaluation.Options{
		CompetitionRadiusM: cfg.Evaluation.CompetitionRadiusM,
		PlacesRadiusM:      cfg.Evaluation.PlacesRadiusM,
	}

	if !noPlaces {
		if cfg.Places.Key == "" {
			return opts, eris.New("places.key is required (or pass --no-places)")
		}
		opts.Places = places.NewClient(cfg.Places.Key, places.WithBaseURL(cfg.Places.BaseURL))
	}

	if !noAgent {
		if cfg.Anthropic.Key == "" {
			return opts, eris.New("anthropic.key is required (or pass --no-agent)")
		}
		opts.Agent = agent.NewEvaluator(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	}

	return opts, nil
}

func init() {
	evaluateCmd.Flags().StringVar(&evalID, "id", "", "location ID")
	evaluateCmd.Flags().Float64Var(&evalLat, "lat", 0, "site latitude")
	evaluateCmd.Flags().Float64Var(&evalLon, "lon", 0, "site longitude")
	evaluateCmd.Flags().StringVar(&evalTipoSitio, "tipo-sitio", "", "site type")
	evaluateCmd.Flags().BoolVar(&evalNoPlaces, "no-places", false, "skip the places fetch, generators and integration")
	evaluateCmd.Flags().BoolVar(&evalNoAgent, "no-agent", false, "skip the model verdict")
	evaluateCmd.MarkFlagRequired("lat") //nolint:errcheck
	evaluateCmd.MarkFlagRequired("lon") //nolint:errcheck
	rootCmd.AddCommand(evaluateCmd)
}
