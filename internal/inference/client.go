package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hadesai/hades/internal/models"
)

// DefaultSystemPrompt is sent when a caller supplies none
const DefaultSystemPrompt = "You are HADES, an AI assistant. Provide concise, factual answers."

// endpoint describes a known OpenAI-compatible chat completions service
type endpoint struct {
	BaseURL string
	Model   string
	Headers map[string]string
}

var knownEndpoints = map[string]endpoint{
	"openai":     {BaseURL: "https://api.openai.com/v1", Model: "gpt-4-turbo"},
	"deepseek":   {BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat"},
	"perplexity": {BaseURL: "https://api.perplexity.ai", Model: "pplx-70b-online"},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "anthropic/claude-3-opus",
		Headers: map[string]string{"X-Title": "hades-ai"},
	},
	"groq":    {BaseURL: "https://api.groq.com/openai/v1", Model: "llama3-70b-8192"},
	"aimlapi": {BaseURL: "https://api.aimlapi.com/v1", Model: "mistralai/Mistral-7B-Instruct-v0.2"},
}

// Client talks to any OpenAI-compatible /chat/completions endpoint
type Client struct {
	config     ProviderConfig
	httpClient *http.Client
}

// NewClient creates a chat completions client. Missing BaseURL, Model and
// headers are filled from the known endpoint of the same name.
func NewClient(config ProviderConfig) *Client {
	if known, ok := knownEndpoints[config.Name]; ok {
		if config.BaseURL == "" {
			config.BaseURL = known.BaseURL
		}
		if config.Model == "" {
			config.Model = known.Model
		}
		headers := make(map[string]string, len(known.Headers)+len(config.Headers))
		for k, v := range known.Headers {
			headers[k] = v
		}
		for k, v := range config.Headers {
			headers[k] = v
		}
		config.Headers = headers
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 250
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		// Per-attempt deadlines come from the caller's context.
		httpClient: &http.Client{},
	}
}

// Name returns the provider name
func (c *Client) Name() string { return c.config.Name }

// ChatRequest is the chat completions request body
type ChatRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Stream      bool             `json:"stream"`
}

// ChatResponse is the subset of the chat completions response we read
type ChatResponse struct {
	Choices []struct {
		Message models.Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateResponse performs a single non-streaming completion
func (c *Client) GenerateResponse(ctx context.Context, input string, opts Options) (string, error) {
	req := ChatRequest{
		Model: c.config.Model,
		Messages: []models.Message{
			{Role: "system", Content: systemPrompt(opts)},
			{Role: "user", Content: input},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	var chat ChatResponse
	decodeErr := json.Unmarshal(data, &chat)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && chat.Error != nil && chat.Error.Message != "" {
			msg = chat.Error.Message
		}
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, msg))
	}

	if decodeErr != nil {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("%w: %v", errParse, decodeErr))
	}
	if len(chat.Choices) == 0 || strings.TrimSpace(chat.Choices[0].Message.Content) == "" {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("%w: no choices", errParse))
	}

	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}

// systemPrompt folds topic and memory context into the system message
func systemPrompt(opts Options) string {
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	if opts.Topic != "" {
		fmt.Fprintf(&b, "\nThe conversation is about %s.", strings.ReplaceAll(opts.Topic, "_", " "))
	}
	if opts.Sentiment < -0.3 {
		b.WriteString("\nThe user seems upset; be gentle.")
	}
	if len(opts.Context) > 0 {
		b.WriteString("\nRelevant earlier conversation:")
		for _, line := range opts.Context {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}
	return b.String()
}

// defaultTimeout bounds a single provider attempt when none is configured
const defaultTimeout = 15 * time.Second
