package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flowdeckhq/flowdeck/internal/config"
	"github.com/flowdeckhq/flowdeck/internal/db"
	"github.com/flowdeckhq/flowdeck/internal/model"
	"github.com/flowdeckhq/flowdeck/internal/search"
	"github.com/flowdeckhq/flowdeck/internal/store"
	"github.com/flowdeckhq/flowdeck/internal/vision"
)

// localActor is the identity CLI commands act as. It matches the open
// mode identity of the HTTP server, so CLI and browser see the same
// projects on a single-user install.
var localActor = model.Actor{UserID: "local"}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `flowdeck init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens the SQLite database under the data dir, creating
// the directory on first run.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return db.Open(filepath.Join(cfg.DataDir, "flowdeck.db"))
}

// filesDir is where uploaded screenshots live on disk.
func filesDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "files")
}

// buildAnalyzer creates the vision provider the config asks for.
func buildAnalyzer(cfg *config.Config) (vision.Provider, error) {
	switch cfg.Vision.Provider {
	case config.VisionOpenAI:
		apiKey := config.OpenAIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI vision")
		}
		return vision.NewOpenAIProvider(apiKey, cfg.Vision.Model), nil
	default:
		return vision.Heuristic{}, nil
	}
}

// buildIndex creates the search index, with embeddings when an OpenAI
// key and embedding model are configured and substring fallback
// otherwise.
func buildIndex(cfg *config.Config) (*search.Index, error) {
	var embedder search.Embedder
	if apiKey := config.OpenAIKey(); apiKey != "" && cfg.Search.EmbeddingModel != "" {
		embedder = search.NewOpenAIEmbedder(apiKey, cfg.Search.EmbeddingModel)
	}
	return search.NewIndex(embedder)
}

// rebuildIndex reindexes every visible project's screens. The index is
// in-memory, so each process start pays this once.
func rebuildIndex(ctx context.Context, st *store.Store, idx *search.Index) error {
	projects, err := st.ListProjects(ctx, localActor)
	if err != nil {
		return err
	}
	for _, p := range projects {
		screens, err := st.ListScreensByProject(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := idx.Rebuild(ctx, p.ID, screens); err != nil {
			return err
		}
	}
	return nil
}
