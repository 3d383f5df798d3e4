package cmd

import (
	"github.com/spf13/cobra"

	"github.com/flowdeckhq/flowdeck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize flowdeck configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure flowdeck and generates a .flowdeck.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
