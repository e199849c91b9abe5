package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/yacht-extract/internal/app"
	"github.com/joseph-ayodele/yacht-extract/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing extract_yacht_document
and merge_onboarding_sources. Stdio is used unless --port is set.`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("store", false, "record each extraction as a scan job")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	store, _ := cmd.Flags().GetBool("store")

	a, err := build(cmd, app.Options{OCR: true, Store: store})
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := mcp.NewServer(a.Processor, a.Merger, logger)
	if err != nil {
		return err
	}
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
