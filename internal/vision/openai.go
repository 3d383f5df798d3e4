package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

const analyzePrompt = `You are analyzing a screenshot of an application screen.
Respond with a JSON object:
{
  "title": "short screen name, e.g. 'Checkout - Payment Method'",
  "description": "one or two sentences on what the screen does",
  "elements": [
    {"type": "button|input|link|image|text|nav", "label": "visible label",
     "bounding_box": {"x": 0, "y": 0, "width": 0, "height": 0}, "confidence": 0.0}
  ]
}
Bounding boxes use percentages of image width and height (0-100).`

const detectPrompt = `List the interactive UI elements visible in this screenshot.
Respond with a JSON object {"elements": [...]} where each element is
{"type": "button|input|link|image|text|nav", "label": "visible label",
 "bounding_box": {"x": 0, "y": 0, "width": 0, "height": 0}, "confidence": 0.0}.
Bounding boxes use percentages of image width and height (0-100).`

// OpenAIProvider implements Provider using the OpenAI vision-capable
// chat models.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a provider using the given model
// (e.g. gpt-4o).
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) AnalyzeScreenshot(ctx context.Context, imageURL, filename string) (*Analysis, error) {
	content, err := p.visionCall(ctx, analyzePrompt, imageURL)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "openai vision", Err: err}
	}

	var a Analysis
	if err := json.Unmarshal([]byte(stripFences(content)), &a); err != nil {
		return nil, &model.ExternalServiceError{Service: "openai vision",
			Err: fmt.Errorf("parsing analysis response: %w", err)}
	}
	if a.Title == "" {
		a.Title = TitleFromFilename(filename)
	}
	a.Elements = model.FilterValidElements(a.Elements)
	return &a, nil
}

func (p *OpenAIProvider) DetectElements(ctx context.Context, imageURL string) ([]model.DetectedElement, error) {
	content, err := p.visionCall(ctx, detectPrompt, imageURL)
	if err != nil {
		return nil, &model.ExternalServiceError{Service: "openai vision", Err: err}
	}

	var parsed struct {
		Elements []model.DetectedElement `json:"elements"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, &model.ExternalServiceError{Service: "openai vision",
			Err: fmt.Errorf("parsing detection response: %w", err)}
	}
	return model.FilterValidElements(parsed.Elements), nil
}

func (p *OpenAIProvider) visionCall(ctx context.Context, prompt, imageURL string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: 4096,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", p.model)
	}
	return resp.Choices[0].Message.Content, nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the response format.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
