package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/physioform/internal/llm"
)

// setupCmd represents the setup-help command
var setupCmd = &cobra.Command{
	Use:   "setup-help",
	Short: "Show how to enable AI extraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		guide := llm.Setup(llm.ConfigFromModel(cfg.LLM))
		w := cmd.OutOrStdout()

		fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
		fmt.Fprintf(w, "  %s\n", guide.Message)
		fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(w)
		for _, step := range guide.Steps {
			fmt.Fprintf(w, "  %s\n", step)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Provider:     %s\n", guide.Provider)
		fmt.Fprintf(w, "  Model:        %s\n", guide.Model)
		if guide.EnvVar != "" {
			state := "not set"
			if guide.APIKeySet {
				state = "set"
			}
			fmt.Fprintf(w, "  %s: %s\n", guide.EnvVar, state)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Note: %s\n", guide.FallbackNote)
		fmt.Fprintf(w, "\n  Supported providers: %v\n\n", llm.SupportedProviders)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
