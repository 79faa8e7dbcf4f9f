package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/gomemory-mcp/internal/mcp"
)

const serveLongDesc string = `Run the MCP server on stdio.

The server exposes save_knowledge, search_knowledge, get_knowledge,
knowledge_status and rebuild_index to the connected client. It runs until
stdin closes or the process receives SIGINT or SIGTERM.`

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := mcp.NewServer(a.repo, mcp.Options{
				Logger:       a.log,
				DefaultLimit: a.cfg.Search.DefaultLimit,
				Workers:      a.cfg.Search.Workers,
			})
			if err != nil {
				return fmt.Errorf("creating MCP server: %w", err)
			}

			// The server closes the repository when it stops
			a.repo = nil
			return server.Serve(cmd.Context())
		},
	}
}
