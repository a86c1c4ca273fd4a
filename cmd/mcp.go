package cmd

import (
	"github.com/huangsam/segreg/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the segreg MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents simulate series, fit the
segmented regression and fetch trend lines through standard tools.

Flags and config values become the defaults that tool arguments override.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, historyManager)
	},
}
