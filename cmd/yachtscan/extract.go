package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/yacht-extract/constants"
	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/core"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Scan one document and print the vessel record",
	Example: `  yachtscan extract registration_certificate.pdf
  yachtscan extract survey.jpg --category survey --json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("category", "", "category hint, one of "+strings.Join(constants.AsStringSlice(), ", ")+" or a short alias")
	extractCmd.Flags().Bool("json", false, "print the full result as JSON")
	extractCmd.Flags().Bool("store", false, "record the run as a scan job")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	asJSON, _ := cmd.Flags().GetBool("json")
	store, _ := cmd.Flags().GetBool("store")

	a, err := build(cmd, app.Options{OCR: true, Store: store})
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Processor.ProcessFile(cmd.Context(), args[0], category)
	if out.Result == nil {
		return err
	}
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(out.Result); encErr != nil {
			return encErr
		}
		return err
	}
	printSummary(w, out)
	return err
}

func printSummary(w io.Writer, out core.Outcome) {
	res := out.Result
	line := func(label, format string, args ...any) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label)), fmt.Sprintf(format, args...))
	}
	if out.JobID != uuid.Nil {
		line("job:", "%s", out.JobID)
	}
	line("file:", "%s", res.Filename)
	if !res.Success {
		line("status:", "%s", failStyle.Render("failed: "+res.Error))
		return
	}
	line("status:", "%s", okStyle.Render("ok"))
	if res.Analysis != nil {
		line("category:", "%s (%s quality)", res.Analysis.Category, res.Analysis.Quality)
	}
	if res.Population != nil {
		line("strategy:", "%s", res.Population.Strategy)
	}
	line("fields:", "%d extracted, %d populated (%.0f%%)", res.FieldsExtracted, res.FieldsPopulated, res.Accuracy)
	if res.Record == nil {
		return
	}
	for _, f := range res.Record.SetFields() {
		v, _ := res.Record.Get(f)
		conf := 0.0
		if res.Population != nil {
			conf = res.Population.Confidence[f]
		}
		fmt.Fprintf(w, "  %-24s %-30v %s\n", f, v, dimStyle.Render(fmt.Sprintf("%.2f", conf)))
	}
	for _, k := range res.Record.ExtraKeys() {
		fmt.Fprintf(w, "  %-24s %-30s %s\n", k, res.Record.Extras[k], dimStyle.Render("extra"))
	}
}
