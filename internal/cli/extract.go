package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ppiankov/physioform/internal/document"
	"github.com/ppiankov/physioform/internal/extract"
	"github.com/ppiankov/physioform/internal/model"
)

var (
	extractHTML     bool
	extractNoAI     bool
	extractXLSX     string
	extractActivity string
	extractDate     string
	extractPretty   bool
	extractTimeout  time.Duration
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Extract participants from a text file or stdin",
	Long: `Extract reads Hebrew text describing workshop participants and prints the
extraction result as JSON. With --xlsx the roster is also written as a
workbook.

Example:
  physioform extract notes.txt
  pbpaste | physioform extract --pretty
  physioform extract notes.txt --no-ai --xlsx roster.xlsx --date 2024-06-01
  physioform extract page.html --html`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().BoolVar(&extractHTML, "html", false, "treat input as HTML and extract its visible text")
	extractCmd.Flags().BoolVar(&extractNoAI, "no-ai", false, "use pattern-based extraction only")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "also write the roster to this XLSX path")
	extractCmd.Flags().StringVar(&extractActivity, "activity", "", "activity type for the roster (post_birth, pregnancy)")
	extractCmd.Flags().StringVar(&extractDate, "date", "", "roster date: YYYY-MM-DD, YYYY-MM or DD/MM/YYYY")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "indent JSON output")
	extractCmd.Flags().DurationVar(&extractTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), extractTimeout)
	defer cancel()

	text, err := readInput(args)
	if err != nil {
		return err
	}
	if extractHTML {
		if text, err = extract.PlainText(text); err != nil {
			return eris.Wrap(err, "parse html")
		}
	}

	var activity *model.ActivityType
	if extractActivity != "" {
		a, ok := model.ParseActivityType(extractActivity)
		if !ok {
			return eris.Errorf("unknown activity type %q (use post_birth or pregnancy)", extractActivity)
		}
		activity = model.ActivityPtr(a)
	}

	a := buildApp(ctx, cfg, extractNoAI)
	result := a.orchestrator.Extract(ctx, text)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	if extractPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "write result")
	}

	if extractXLSX == "" {
		return nil
	}
	if activity == nil {
		activity = result.ActivityType
	}

	data, err := document.NewGenerator().Render(result.Participants, activity, extractDate)
	if err != nil {
		return eris.Wrap(err, "render roster")
	}
	if err := os.WriteFile(extractXLSX, data, 0o644); err != nil {
		return eris.Wrap(err, "write roster")
	}
	fmt.Fprintf(os.Stderr, "✓ Roster written: %s (%d participants)\n", extractXLSX, len(result.Participants))
	return nil
}

func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", eris.Wrap(err, "read stdin")
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", eris.Wrap(err, "read input")
	}
	return string(data), nil
}
