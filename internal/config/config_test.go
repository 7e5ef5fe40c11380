package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hadesai/hades/internal/inference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.Agent.MinMatchScore)
	assert.Equal(t, 0.3, cfg.AI.CutoffScore)
	assert.Equal(t, 3, cfg.Agent.MaxTopicsActive)
	assert.Equal(t, 2, cfg.AI.RetryAttempts)
	assert.Equal(t, 10, cfg.Memory.ShortTermCapacity)
	assert.False(t, cfg.Memory.Persistence)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "hades.yaml", `
agent:
  min_match_score: 0.8
  enable_blending: false
ai:
  priority: [groq, openai]
  timeout: 12s
  providers:
    groq:
      model: llama-3.1-8b-instant
memory:
  persistence: true
  backend: badger
topics: [personal_finance, mental_health]
logging:
  level: debug
`)

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Agent.MinMatchScore)
	assert.False(t, cfg.Agent.EnableBlending)
	// untouched fields keep their defaults
	assert.Equal(t, 0.75, cfg.Agent.KeywordWeight)
	assert.Equal(t, []string{"groq", "openai"}, cfg.AI.Priority)
	assert.Equal(t, 12*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.AI.Providers["groq"].Model)
	assert.True(t, cfg.Memory.Persistence)
	assert.Equal(t, "badger", cfg.Memory.Backend)
	assert.Equal(t, []string{"personal_finance", "mental_health"}, cfg.Topics)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "bad.yaml", `
agent:
  max_topics_active: 0
memory:
  backend: mongo
topics: [astrology]
`)
	_, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_topics_active")
	assert.Contains(t, err.Error(), "memory.backend")
	assert.Contains(t, err.Error(), `unknown topic "astrology"`)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.AI.Providers["openai"] = inference.ProviderSettings{Model: "gpt-4o-mini"}

	env := map[string]string{
		"OPENAI_API_KEY":   " sk-test ",
		"GEMINI_API_KEY":   "g-key",
		"GROQ_API_KEY":     "",
		"HADES_LOG_LEVEL":  "info",
		"HADES_DGRAPH_URL": "localhost:9080",
	}
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "sk-test", cfg.AI.Providers["openai"].APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Providers["openai"].Model)
	assert.Equal(t, "g-key", cfg.AI.Providers["gemini"].APIKey)
	_, hasGroq := cfg.AI.Providers["groq"]
	assert.False(t, hasGroq)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "localhost:9080", cfg.Dgraph.URL)

	assert.Equal(t, []string{"openai", "gemini"}, cfg.EnabledProviders())
}

func TestLoadDotEnv(t *testing.T) {
	envFile := writeFile(t, "test.env", "DEEPSEEK_API_KEY=ds-from-file\n")
	t.Setenv("DEEPSEEK_API_KEY", "")
	os.Unsetenv("DEEPSEEK_API_KEY")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "ds-from-file", cfg.AI.Providers["deepseek"].APIKey)
}

func TestValidateLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}
