package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/entity"
	"github.com/joseph-ayodele/yacht-extract/internal/onboarding"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <result.json>...",
	Short: "Merge saved extraction results into one onboarding record",
	Long: `Merge folds the results written by "extract --json" into an onboarding
record. Fields already in --previous are never overwritten; among the
results, earlier files win.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("previous", "", "existing onboarding state JSON")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	prevPath, _ := cmd.Flags().GetString("previous")

	a, err := build(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	var prev onboarding.State
	if prevPath != "" {
		if err := readJSON(prevPath, &prev); err != nil {
			return err
		}
	}
	results := make([]*entity.Result, 0, len(args))
	for _, p := range args {
		var res entity.Result
		if err := readJSON(p, &res); err != nil {
			return err
		}
		results = append(results, &res)
	}

	state := a.Merger.MergeResults(prev, results...)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
