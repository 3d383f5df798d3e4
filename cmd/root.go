package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "flowdeck",
	Short: "Organize app screenshots into flows and screens",
	Long: `Flowdeck turns a pile of app screenshots into an organized deck of
user flows. It serves a web UI and REST API for arranging screens
into hierarchical flows, can analyze screenshots with AI vision, and
exposes the whole deck to AI agents via MCP.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".flowdeck.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
