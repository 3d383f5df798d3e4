package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowdeckhq/flowdeck/internal/export"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <project-id>",
	Short: "Export a project as a standalone HTML document",
	Args:  cobra.ExactArgs(1),
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

		data, err := st.LoadProject(cmd.Context(), localActor, args[0])
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}

		path, err := export.NewExporter().Export(data, exportOut)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %q to %s\n", data.Project.Name, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "flowdeck-export", "Output directory")
	rootCmd.AddCommand(exportCmd)
}
