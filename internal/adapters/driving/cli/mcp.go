package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/redline-cli/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve [document]",
	Short: "Start the MCP server over a document",
	Long: `Start the Model Context Protocol server bound to one document. The
server exposes the search, resolve and apply operations as tools so an AI
assistant can drive the re-anchoring engine directly.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default)
  redline mcp serve contract.docx

  # HTTP mode
  redline mcp serve contract.docx --port 8080`,
	Args: cobra.ExactArgs(1),
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	host, err := openHost(args[0])
	if err != nil {
		return err
	}
	eng := newEngine(host)

	ports := &mcp.Ports{
		Search:   eng.search,
		Resolver: eng.resolver,
		Editor:   eng.editor,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
