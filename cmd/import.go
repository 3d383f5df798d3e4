package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowdeckhq/flowdeck/internal/importer"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/progress"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

var (
	importProject string
	importAnalyze bool
)

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Bulk-import screenshots from a directory",
	Long: `Scans a directory for screenshots and creates flows and screens from
them. Each top-level subdirectory becomes a flow; include and exclude
patterns come from the config file.`,
	Args: cobra.ExactArgs(1),
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

		files, err := storage.NewLocal(filesDir(cfg), "/files/")
		if err != nil {
			return fmt.Errorf("creating file store: %w", err)
		}

		analyzer, err := buildAnalyzer(cfg)
		if err != nil {
			return fmt.Errorf("creating vision provider: %w", err)
		}

		projectID := importProject
		if projectID == "" {
			p := &model.Project{Name: "Imported Screenshots"}
			if err := st.CreateProject(cmd.Context(), localActor, p); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			projectID = p.ID
			fmt.Printf("Created project %q (%s)\n", p.Name, p.ID)
		}

		imp := importer.New(st, files, analyzer, progress.NewReporter())
		summary, err := imp.Run(cmd.Context(), localActor, projectID, importer.Options{
			Dir:     args[0],
			Include: cfg.Import.Include,
			Exclude: cfg.Import.Exclude,
			Analyze: importAnalyze,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d screen(s) into %d flow(s)", summary.Screens, summary.Flows)
		if summary.Skipped > 0 {
			fmt.Printf(", skipped %d", summary.Skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importProject, "project", "", "Project ID to import into (default: create a new project)")
	importCmd.Flags().BoolVar(&importAnalyze, "analyze", false, "Run AI vision on each screenshot to name screens")
	rootCmd.AddCommand(importCmd)
}
