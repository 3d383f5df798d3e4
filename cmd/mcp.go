package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/flowdeckhq/flowdeck/internal/mcp"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing project browsing and screen search tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		st := store.New(database)

		index, err := buildIndex(cfg)
		if err != nil {
			return fmt.Errorf("creating search index: %w", err)
		}
		if err := rebuildIndex(cmd.Context(), st, index); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not rebuild search index: %v\n", err)
		}

		mcpserver.Version = Version

		fmt.Fprintln(os.Stderr, "flowdeck MCP server started on stdio")

		srv := mcpserver.NewServer(st, index, localActor)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
