package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file flowdeck looks for in the working
// directory.
const DefaultPath = ".flowdeck.yml"

// DefaultExcludes are glob patterns the importer skips by default.
var DefaultExcludes = []string{
	"node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
}

// DefaultConfig returns a Config with sensible defaults: a local data
// directory, heuristic analysis, and substring search.
func DefaultConfig() *Config {
	return &Config{
		Port:    8090,
		DataDir: ".flowdeck",
		Vision: VisionConfig{
			Provider: VisionHeuristic,
		},
		Import: ImportConfig{
			Include: []string{"**/*.png", "**/*.jpg", "**/*.jpeg", "**/*.webp"},
			Exclude: DefaultExcludes,
		},
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FLOWDECK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// FLOWDECK_PORT -> port, FLOWDECK_DATA_DIR -> data_dir.
	if err := k.Load(env.Provider("FLOWDECK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "FLOWDECK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validVisionProviders = map[VisionProvider]bool{
	VisionOpenAI:    true,
	VisionHeuristic: true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Vision.Provider != "" && !validVisionProviders[c.Vision.Provider] {
		return fmt.Errorf("invalid vision provider %q: must be openai or heuristic", c.Vision.Provider)
	}
	if c.Vision.Provider == VisionOpenAI && c.Vision.Model == "" {
		return fmt.Errorf("vision.model is required when vision.provider is openai")
	}
	return nil
}

// OpenAIKey returns the OpenAI API key from the environment.
func OpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
