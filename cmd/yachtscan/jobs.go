package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/export"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect recorded scan jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent scan jobs",
	RunE:  runJobsList,
}

var jobsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recent scan jobs to an XLSX workbook",
	RunE:  runJobsExport,
}

func init() {
	jobsCmd.PersistentFlags().Int("limit", 50, "maximum jobs")
	jobsExportCmd.Flags().String("out", "scan_jobs.xlsx", "output XLSX path")
	jobsCmd.AddCommand(jobsListCmd, jobsExportCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	a, err := build(cmd, app.Options{Store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	jobs, err := a.Jobs.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tCATEGORY\tSTATUS\tFIELDS\tACCURACY\tSTARTED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.1f\t%s\n", j.ID, j.Filename, j.Category, j.Status,
			j.FieldsPopulated, j.Accuracy, j.StartedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runJobsExport(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	outPath, _ := cmd.Flags().GetString("out")
	a, err := build(cmd, app.Options{Store: true})
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := export.NewService(a.Jobs, a.Merger, logger).JobsXLSX(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
	return nil
}
