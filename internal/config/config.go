// Package config loads process configuration from YAML, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hadesai/hades/internal/agent"
	"github.com/hadesai/hades/internal/inference"
	"github.com/hadesai/hades/internal/logging"
	"github.com/hadesai/hades/internal/memory"
	"github.com/hadesai/hades/internal/topics"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv maps provider names to the environment variable holding their key
var APIKeyEnv = map[string]string{
	"openai":      "OPENAI_API_KEY",
	"deepseek":    "DEEPSEEK_API_KEY",
	"perplexity":  "PERPLEXITY_API_KEY",
	"openrouter":  "OPENROUTER_API_KEY",
	"groq":        "GROQ_API_KEY",
	"aimlapi":     "AIMLAPI_KEY",
	"huggingface": "HUGGINGFACE_API_KEY",
	"gemini":      "GEMINI_API_KEY",
}

// Config is the complete process configuration
type Config struct {
	Agent   *agent.Config     `yaml:"agent"`
	AI      *inference.Config `yaml:"ai"`
	Memory  *memory.Config    `yaml:"memory"`
	Logging *logging.Config   `yaml:"logging"`
	Audit   AuditConfig       `yaml:"audit"`
	Dgraph  DgraphConfig      `yaml:"dgraph"`

	// Topics to load; empty loads every built-in topic
	Topics []string `yaml:"topics"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090"
	MetricsAddr string `yaml:"metrics_addr"`
}

// AuditConfig controls the turn audit log
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DgraphConfig points at an optional Dgraph alpha mirroring the topic graph
type DgraphConfig struct {
	URL string `yaml:"url"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Agent:   agent.DefaultConfig(),
		AI:      inference.DefaultConfig(),
		Memory:  memory.DefaultConfig(),
		Logging: logging.DefaultConfig(),
		Audit: AuditConfig{
			Enabled: true,
			Path:    "~/.hades/audit.db",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if any),
// then .env files, then the environment. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
// A missing file is not an error.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv fills provider API keys and a few overrides from lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.AI.Providers == nil {
		c.AI.Providers = make(map[string]inference.ProviderSettings)
	}
	for name, env := range APIKeyEnv {
		key, ok := lookup(env)
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		settings := c.AI.Providers[name]
		settings.APIKey = strings.TrimSpace(key)
		c.AI.Providers[name] = settings
	}

	if v, ok := lookup("HADES_LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("HADES_REDIS_URL"); ok && v != "" {
		c.Memory.RedisURL = v
	}
	if v, ok := lookup("HADES_REDIS_PASSWORD"); ok && v != "" {
		c.Memory.RedisPassword = v
	}
	if v, ok := lookup("HADES_DGRAPH_URL"); ok && v != "" {
		c.Dgraph.URL = v
	}
}

// EnabledProviders lists the providers in priority order that have an API key
func (c *Config) EnabledProviders() []string {
	var names []string
	for _, name := range c.AI.Priority {
		if c.AI.Providers[name].APIKey != "" {
			names = append(names, name)
		}
	}
	return names
}

// Validate checks value ranges and names
func (c *Config) Validate() error {
	var errs []error
	a := c.Agent
	if a.MinMatchScore < 0 {
		errs = append(errs, fmt.Errorf("agent.min_match_score must be >= 0, got %v", a.MinMatchScore))
	}
	if a.KeywordWeight <= 0 {
		errs = append(errs, fmt.Errorf("agent.keyword_weight must be > 0, got %v", a.KeywordWeight))
	}
	if a.MaxTopicsActive < 1 {
		errs = append(errs, fmt.Errorf("agent.max_topics_active must be >= 1, got %d", a.MaxTopicsActive))
	}
	if a.BlendScoreMargin < 0 {
		errs = append(errs, fmt.Errorf("agent.blend_score_margin must be >= 0, got %v", a.BlendScoreMargin))
	}
	if a.EmpathyThreshold < -1 || a.EmpathyThreshold > 1 {
		errs = append(errs, fmt.Errorf("agent.empathy_threshold must be in [-1, 1], got %v", a.EmpathyThreshold))
	}
	if a.EmotionalFallbackThreshold < -1 || a.EmotionalFallbackThreshold > 1 {
		errs = append(errs, fmt.Errorf("agent.emotional_fallback_threshold must be in [-1, 1], got %v", a.EmotionalFallbackThreshold))
	}

	ai := c.AI
	if ai.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("ai.retry_attempts must be >= 1, got %d", ai.RetryAttempts))
	}
	if ai.CutoffScore < 0 {
		errs = append(errs, fmt.Errorf("ai.cutoff_score must be >= 0, got %v", ai.CutoffScore))
	}
	if ai.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("ai.timeout must be positive, got %v", ai.Timeout))
	}
	if ai.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("ai.rate_limit must be >= 0, got %v", ai.RateLimit))
	}

	m := c.Memory
	if m.ShortTermCapacity < 1 {
		errs = append(errs, fmt.Errorf("memory.short_term_capacity must be >= 1, got %d", m.ShortTermCapacity))
	}
	switch m.Backend {
	case "", "file", "badger", "redis":
	default:
		errs = append(errs, fmt.Errorf("memory.backend must be file, badger or redis, got %q", m.Backend))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}

	known := make(map[string]bool)
	for _, name := range topics.Names() {
		known[name] = true
	}
	for _, name := range c.Topics {
		if !known[name] {
			errs = append(errs, fmt.Errorf("unknown topic %q", name))
		}
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		errs = append(errs, errors.New("audit.path is required when the audit log is enabled"))
	}

	return errors.Join(errs...)
}
