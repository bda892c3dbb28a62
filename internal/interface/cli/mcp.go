package cli

import (
	"fmt"

	"github.com/neilberkman/leadrider/cmd/leadrider/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start MCP server exposing your leads",
	Long: `Start an MCP (Model Context Protocol) server on stdio that lets an
assistant list leads, read a lead's timeline and see dashboard numbers,
using the session stored by 'leadrider login'.

Configure in your MCP client's config file:
  {
    "mcpServers": {
      "leadrider": {
        "command": "leadrider",
        "args": ["serve-mcp"]
      }
    }
  }
`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireUser(cmd.Context()); err != nil {
		return err
	}

	if err := mcp.StartServer(a.crm, a.log, appVersion); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
