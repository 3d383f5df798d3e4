package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flowdeckhq/flowdeck/internal/events"
	"github.com/flowdeckhq/flowdeck/internal/server"
	"github.com/flowdeckhq/flowdeck/internal/session"
	"github.com/flowdeckhq/flowdeck/internal/storage"
	"github.com/flowdeckhq/flowdeck/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the flowdeck web server",
	Long:  `Starts the flowdeck server with the REST API, websocket events, screenshot uploads, and shared project views.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		port := cfg.Port
		if servePort > 0 {
			port = servePort
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

		index, err := buildIndex(cfg)
		if err != nil {
			return fmt.Errorf("creating search index: %w", err)
		}
		if err := rebuildIndex(cmd.Context(), st, index); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not rebuild search index: %v\n", err)
		}

		hub := events.NewHub()
		sessions := session.NewManager(st, hub.Publish)

		srv := server.New(server.Config{
			Port:     port,
			FilesDir: files.Dir(),
			AllowAll: cfg.AllowAllOrigins,
		}, database, st, sessions, files, analyzer, index, hub)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "flowdeck v%s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", filepath.Join(cfg.DataDir, "flowdeck.db"))
		fmt.Fprintf(os.Stderr, "  Screenshots: %s\n", files.Dir())
		fmt.Fprintf(os.Stderr, "  Vision: %s\n", analyzer.Name())

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
