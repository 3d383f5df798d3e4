package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive setup and writes the result to
// .flowdeck.yml in the working directory.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to flowdeck! Let's set up your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "Port to serve on",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	dataPrompt := promptui.Prompt{
		Label:   "Data directory (database and uploads)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	visionPrompt := promptui.Select{
		Label: "Screenshot analysis",
		Items: []string{
			"heuristic: titles from filenames, no API key needed",
			"openai: vision model names screens and detects elements",
		},
	}
	visionIdx, _, err := visionPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("analysis selection: %w", err)
	}
	if visionIdx == 1 {
		cfg.Vision.Provider = VisionOpenAI
		modelPrompt := promptui.Prompt{
			Label:   "Vision model",
			Default: "gpt-4o",
		}
		if cfg.Vision.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("vision model: %w", err)
		}
		cfg.Search.EmbeddingModel = "text-embedding-3-small"
		if OpenAIKey() == "" {
			fmt.Fprintln(os.Stderr, "note: OPENAI_API_KEY is not set; analysis will fail until it is")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, err
	}
	fmt.Printf("\nWrote %s\n", DefaultPath)
	return cfg, nil
}
