package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/tiendasneto/expansion-cli/internal/integration"
)

var integrateCmd = &cobra.Command{
	Use:   "integrate <candidates.csv>",
	Short: "Score commercial integration from a places CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		candidates, err := integration.LoadCandidatesCSV(args[0])
		if err != nil {
			return err
		}

		result := integration.Score(candidates)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(integrateCmd)
}
