package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != 8090 {
		t.Errorf("expected default port 8090, got %d", cfg.Port)
	}
	if cfg.DataDir != ".flowdeck" {
		t.Errorf("expected default data_dir %q, got %q", ".flowdeck", cfg.DataDir)
	}
	if cfg.Vision.Provider != VisionHeuristic {
		t.Errorf("expected default vision provider %q, got %q", VisionHeuristic, cfg.Vision.Provider)
	}
	if len(cfg.Import.Include) == 0 {
		t.Error("expected default import include patterns")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.flowdeck.yml")

	original := DefaultConfig()
	original.Port = 9999
	original.DataDir = "/var/lib/flowdeck"
	original.Vision.Provider = VisionOpenAI
	original.Vision.Model = "gpt-4o"
	original.Search.EmbeddingModel = "text-embedding-3-small"
	original.Import.Include = []string{"shots/**/*.png"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Port != original.Port {
		t.Errorf("port: got %d, want %d", loaded.Port, original.Port)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if loaded.Vision.Provider != original.Vision.Provider {
		t.Errorf("vision.provider: got %q, want %q", loaded.Vision.Provider, original.Vision.Provider)
	}
	if loaded.Vision.Model != original.Vision.Model {
		t.Errorf("vision.model: got %q, want %q", loaded.Vision.Model, original.Vision.Model)
	}
	if loaded.Search.EmbeddingModel != original.Search.EmbeddingModel {
		t.Errorf("search.embedding_model: got %q, want %q", loaded.Search.EmbeddingModel, original.Search.EmbeddingModel)
	}
	if len(loaded.Import.Include) != 1 || loaded.Import.Include[0] != "shots/**/*.png" {
		t.Errorf("import.include: got %v", loaded.Import.Include)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 8090 {
		t.Errorf("expected defaults, got port %d", cfg.Port)
	}
}

func TestEnvOverride(t *testing.T) {
	os.Setenv("FLOWDECK_PORT", "7777")
	defer os.Unsetenv("FLOWDECK_PORT")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("env override ignored: port = %d, want 7777", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown vision provider", func(c *Config) { c.Vision.Provider = "llava" }},
		{"openai without model", func(c *Config) { c.Vision.Provider = VisionOpenAI; c.Vision.Model = "" }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
