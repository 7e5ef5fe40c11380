package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClientInitialization tests known endpoint defaults and overrides
func TestClientInitialization(t *testing.T) {
	client := NewClient(ProviderConfig{Name: "openrouter", APIKey: "k"})
	assert.Equal(t, "https://openrouter.ai/api/v1", client.config.BaseURL)
	assert.Equal(t, "anthropic/claude-3-opus", client.config.Model)
	assert.Equal(t, "hades-ai", client.config.Headers["X-Title"])
	assert.Equal(t, 0.7, client.config.Temperature)
	assert.Equal(t, 250, client.config.MaxTokens)

	client = NewClient(ProviderConfig{
		Name:    "groq",
		Model:   "mixtral-8x7b-32768",
		BaseURL: "http://custom/v1/",
		Headers: map[string]string{"HTTP-Referer": "https://example.test"},
	})
	assert.Equal(t, "mixtral-8x7b-32768", client.config.Model)
	assert.Equal(t, "http://custom/v1", client.config.BaseURL)
	assert.Equal(t, "https://example.test", client.config.Headers["HTTP-Referer"])
}

func TestClientGenerateResponse(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "hades-ai", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  An index fund tracks a market index.  "}}]}`)
	}))
	defer server.Close()

	client := NewClient(ProviderConfig{Name: "openrouter", APIKey: "sk-test", BaseURL: server.URL + "/v1"})
	text, err := client.GenerateResponse(context.Background(), "what is an index fund?", Options{
		Topic:     "financial_investing",
		Sentiment: -0.6,
		Context:   []string{"user is saving for retirement"},
	})
	require.NoError(t, err)
	assert.Equal(t, "An index fund tracks a market index.", text)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, DefaultSystemPrompt)
	assert.Contains(t, got.Messages[0].Content, "financial investing")
	assert.Contains(t, got.Messages[0].Content, "be gentle")
	assert.Contains(t, got.Messages[0].Content, "- user is saving for retirement")
	assert.Equal(t, "what is an index fund?", got.Messages[1].Content)
	assert.Equal(t, 250, got.MaxTokens)
	assert.False(t, got.Stream)
}

func TestClientErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorClass
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, ClassRateLimit},
		{"forbidden", http.StatusForbidden, `forbidden`, ClassRateLimit},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key"}}`, ClassAuth},
		{"server error", http.StatusInternalServerError, `oops`, ClassGeneric},
		{"bad json", http.StatusOK, `{"choices":`, ClassParse},
		{"no choices", http.StatusOK, `{"choices":[]}`, ClassParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(ProviderConfig{Name: "openai", APIKey: "k", BaseURL: server.URL})
			_, err := client.GenerateResponse(context.Background(), "hi", Options{})

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.want, perr.Class)
			assert.Equal(t, "openai", perr.Provider)
		})
	}
}

func TestClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(ProviderConfig{Name: "openai", APIKey: "k", BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.GenerateResponse(ctx, "hi", Options{})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ClassTimeout, perr.Class)
}

func TestHuggingFaceResponseShapes(t *testing.T) {
	bodies := map[string]string{
		"list":   `[{"generated_text":" Budget first. "}]`,
		"object": `{"generated_text":"Budget first."}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var req hfRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/models/"+huggingFaceModel, r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				io.WriteString(w, body)
			}))
			defer server.Close()

			client := NewHuggingFaceClient(ProviderConfig{APIKey: "hf", BaseURL: server.URL + "/models"})
			text, err := client.GenerateResponse(context.Background(), "how do I budget", Options{})
			require.NoError(t, err)
			assert.Equal(t, "Budget first.", text)
			assert.Contains(t, req.Inputs, "[INST] "+DefaultSystemPrompt)
			assert.Contains(t, req.Inputs, "[/INST]\n\nhow do I budget")
			assert.Equal(t, 250, req.Parameters.MaxNewTokens)
		})
	}
}

func TestHuggingFaceForbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewHuggingFaceClient(ProviderConfig{APIKey: "hf", BaseURL: server.URL})
	_, err := client.GenerateResponse(context.Background(), "hi", Options{})
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, ClassRateLimit, perr.Class)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
}

// TestGeminiGenerate calls the live API (requires GEMINI_API_KEY)
func TestGeminiGenerate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := NewGeminiProvider(ctx, ProviderConfig{APIKey: key})
	require.NoError(t, err)

	text, err := provider.GenerateResponse(ctx, "Say 'hello' and nothing else.", Options{})
	if err != nil {
		t.Skipf("Skipping test - Gemini not available: %v", err)
	}
	assert.NotEmpty(t, text)
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), ProviderConfig{})
	assert.Error(t, err)
}
