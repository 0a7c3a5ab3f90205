package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the stlcat MCP server (stdio)",
	Long: `Start a Model Context Protocol (MCP) server that exposes the catalog's
entries, tags, and import/export functionality as MCP tools via STDIO.

The --db flag is optional. If not provided, a system-specific default location will be used:
- Windows: %USERPROFILE%\AppData\Roaming\stlcat\stl_catalog.db
- macOS: ~/Library/Application Support/stlcat/stl_catalog.db
- Linux: ~/.local/share/stlcat/stl_catalog.db

Example:
  stlcat mcp
  stlcat mcp --db stl_catalog.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := mcp.NewCatalogMCPServer(dbPath, walMode, syncMode)
		if err != nil {
			return err
		}
		defer srv.Close()

		db := srv.DB()
		s := srv.MCPRawServer()

		mcp.RegisterPingTool(s)
		mcp.RegisterAddEntryTool(s, db)
		mcp.RegisterGetEntryTool(s, db)
		mcp.RegisterListEntriesTool(s, db)
		mcp.RegisterUpdateEntryTool(s, db)
		mcp.RegisterDeleteEntriesTool(s, db)

		mcp.RegisterListTagsTool(s, db)
		mcp.RegisterAddTagTool(s, db)
		mcp.RegisterRenameTagTool(s, db)
		mcp.RegisterDeleteTagTool(s, db)
		mcp.RegisterTagUsageTool(s, db)

		mcp.RegisterExportCatalogTool(s, db)
		mcp.RegisterImportCatalogTool(s, db)

		// Log to stderr so we don't contaminate the JSON-RPC stream on stdout.
		fmt.Fprintf(os.Stderr, "stlcat MCP server started. DB: %s (WAL: %t, Sync: %s)\n", srv.DbPath, walMode, syncMode)
		fmt.Fprintln(os.Stderr, "Available tools: ping, add_entry, get_entry, list_entries, update_entry, delete_entries, list_tags, add_tag, rename_tag, delete_tag, tag_usage, export_catalog, import_catalog")
		fmt.Fprintln(os.Stderr, "Listening for MCP JSON-RPC on STDIN/STDOUT ... (Ctrl+C to quit)")

		return srv.Start()
	},
}
