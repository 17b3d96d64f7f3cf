package cli

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether AI extraction is available",
	Long: `Probe builds the configured LLM provider, checks that it answers and
prints the capability status as JSON. Pattern-based extraction is always
available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := buildApp(cmd.Context(), cfg, false)
		status := a.orchestrator.Status()

		out := struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
			Version  string `json:"version"`
			Status   any    `json:"capabilities"`
		}{
			Provider: a.provider,
			Model:    a.model,
			Version:  Version,
			Status:   status,
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return eris.Wrap(err, "write status")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
