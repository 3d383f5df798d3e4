package vision

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Analysis is what a provider extracts from a single screenshot.
type Analysis struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Elements    []model.DetectedElement `json:"elements"`
}

// Provider analyzes screenshots. Implementations may take minutes per
// screen; callers pass a context sized accordingly and cancel the rest
// of a batch when one screen fails hard.
type Provider interface {
	Name() string
	AnalyzeScreenshot(ctx context.Context, imageURL, filename string) (*Analysis, error)
	DetectElements(ctx context.Context, imageURL string) ([]model.DetectedElement, error)
}

// Heuristic is the fallback provider used when no API key is
// configured. It derives a title from the filename and detects nothing.
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) AnalyzeScreenshot(_ context.Context, _, filename string) (*Analysis, error) {
	return &Analysis{Title: TitleFromFilename(filename)}, nil
}

func (Heuristic) DetectElements(_ context.Context, _ string) ([]model.DetectedElement, error) {
	return nil, nil
}

// TitleFromFilename turns "checkout_payment-method.png" into
// "Checkout Payment Method".
func TitleFromFilename(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Untitled Screen"
	}
	return strings.Join(words, " ")
}
