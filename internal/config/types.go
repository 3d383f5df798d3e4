package config

// VisionProvider identifies how screenshots are analyzed.
type VisionProvider string

const (
	// VisionOpenAI uses a vision-capable OpenAI chat model.
	VisionOpenAI VisionProvider = "openai"
	// VisionHeuristic derives titles from filenames and detects
	// nothing. Works without an API key.
	VisionHeuristic VisionProvider = "heuristic"
)

// Config is the top-level flowdeck configuration, corresponding to
// .flowdeck.yml.
type Config struct {
	Port            int          `yaml:"port" koanf:"port"`
	DataDir         string       `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool         `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	Vision          VisionConfig `yaml:"vision" koanf:"vision"`
	Search          SearchConfig `yaml:"search" koanf:"search"`
	Import          ImportConfig `yaml:"import" koanf:"import"`
}

// VisionConfig selects the screenshot analysis provider.
type VisionConfig struct {
	Provider VisionProvider `yaml:"provider" koanf:"provider"`
	Model    string         `yaml:"model" koanf:"model"`
}

// SearchConfig controls semantic search. An empty embedding model
// disables embeddings; substring search still works.
type SearchConfig struct {
	EmbeddingModel string `yaml:"embedding_model" koanf:"embedding_model"`
}

// ImportConfig holds the glob patterns the bulk importer scans with.
type ImportConfig struct {
	Include []string `yaml:"include" koanf:"include"`
	Exclude []string `yaml:"exclude" koanf:"exclude"`
}
