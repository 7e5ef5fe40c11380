package inference

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

// GeminiProvider generates answers through Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	config ProviderConfig
}

// NewGeminiProvider creates a Gemini provider
func NewGeminiProvider(ctx context.Context, config ProviderConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Name == "" {
		config.Name = "gemini"
	}
	if config.Model == "" {
		config.Model = geminiModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 250
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, config: config}, nil
}

// Name returns the provider name
func (g *GeminiProvider) Name() string { return g.config.Name }

// GenerateResponse runs a single GenerateContent call
func (g *GeminiProvider) GenerateResponse(ctx context.Context, input string, opts Options) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(input, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(opts), genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.config.Temperature)),
		MaxOutputTokens:   int32(g.config.MaxTokens),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, cfg)
	if err != nil {
		// The SDK surfaces HTTP status inside the message (e.g. "Error 429, ... RESOURCE_EXHAUSTED").
		return "", classify(g.Name(), 0, fmt.Errorf("GenAI generate failed: %w", err))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", classify(g.Name(), 0, fmt.Errorf("%w: empty candidate", errParse))
	}
	return text, nil
}
