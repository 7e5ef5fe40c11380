package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	huggingFaceURL   = "https://api-inference.huggingface.co/models"
	huggingFaceModel = "mistralai/Mixtral-8x7B-Instruct-v0.1"
)

// HuggingFaceClient calls the hosted inference API of an instruct model
type HuggingFaceClient struct {
	config     ProviderConfig
	httpClient *http.Client
}

// NewHuggingFaceClient creates a HuggingFace provider
func NewHuggingFaceClient(config ProviderConfig) *HuggingFaceClient {
	if config.Name == "" {
		config.Name = "huggingface"
	}
	if config.BaseURL == "" {
		config.BaseURL = huggingFaceURL
	}
	if config.Model == "" {
		config.Model = huggingFaceModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 250
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &HuggingFaceClient{config: config, httpClient: &http.Client{}}
}

// Name returns the provider name
func (c *HuggingFaceClient) Name() string { return c.config.Name }

type hfRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		Temperature  float64 `json:"temperature"`
		MaxNewTokens int     `json:"max_new_tokens"`
	} `json:"parameters"`
}

type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}

// GenerateResponse sends an [INST]-wrapped prompt and returns the generated text
func (c *HuggingFaceClient) GenerateResponse(ctx context.Context, input string, opts Options) (string, error) {
	var req hfRequest
	req.Inputs = fmt.Sprintf("[INST] %s [/INST]\n\n%s", systemPrompt(opts), input)
	req.Parameters.Temperature = c.config.Temperature
	req.Parameters.MaxNewTokens = c.config.MaxTokens

	body, err := json.Marshal(req)
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/"+c.config.Model, bytes.NewReader(body))
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(c.Name(), 0, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	// The API answers with either a list or a single object.
	var list []hfGenerated
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 && strings.TrimSpace(list[0].GeneratedText) != "" {
			return strings.TrimSpace(list[0].GeneratedText), nil
		}
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("%w: empty generation list", errParse))
	}

	var single hfGenerated
	if err := json.Unmarshal(data, &single); err != nil {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("%w: %v", errParse, err))
	}
	if strings.TrimSpace(single.GeneratedText) == "" {
		return "", classify(c.Name(), resp.StatusCode, fmt.Errorf("%w: missing generated_text", errParse))
	}
	return strings.TrimSpace(single.GeneratedText), nil
}
