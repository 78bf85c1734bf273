package cmd

import (
	"github.com/mj1618/deskctl/internal/server"
	"github.com/mj1618/deskctl/internal/version"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing deskctl commands as tools",
	Long: `Start a Model Context Protocol (MCP) server that exposes every deskctl
command as a tool over one in-process session. AI agents can call tools
directly without shell overhead.

Supported transports:
  stdio   Standard I/O (default, for MCP clients that spawn the server)
  http    Streamable HTTP transport (for remote agents)

Examples:
  deskctl mcp
  deskctl mcp --transport http --addr 127.0.0.1:8765`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "", "Transport: stdio, http")
	mcpCmd.Flags().String("addr", "", "Listen address for the http transport")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if cmd.Flags().Changed("transport") {
		cfg.MCP.Transport, _ = cmd.Flags().GetString("transport")
	}
	if cmd.Flags().Changed("addr") {
		cfg.MCP.Addr, _ = cmd.Flags().GetString("addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	name := sessionName()
	d, err := newDispatcher(cfg, name, logger.WithField("session", name))
	if err != nil {
		return err
	}
	srv := server.New(d, version.Version, logger)
	return srv.Serve(server.Config{Transport: cfg.MCP.Transport, Addr: cfg.MCP.Addr})
}
