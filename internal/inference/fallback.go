package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/hadesai/hades/internal/models"
	"go.uber.org/zap"
)

// DefaultPriority is the provider order used when none is configured
var DefaultPriority = []string{
	"openai", "deepseek", "perplexity", "openrouter", "groq", "aimlapi", "huggingface", "gemini",
}

// ProviderSettings configures one named provider
type ProviderSettings struct {
	APIKey  string            `yaml:"api_key"`
	Model   string            `yaml:"model"`
	BaseURL string            `yaml:"base_url"`
	Headers map[string]string `yaml:"headers"`
}

// Config holds the AI fallback configuration
type Config struct {
	Priority          []string      `yaml:"priority"`
	RetryAttempts     int           `yaml:"retry_attempts"`
	Timeout           time.Duration `yaml:"timeout"` // per attempt
	CutoffScore       float64       `yaml:"cutoff_score"`
	MaxResponseLength int           `yaml:"max_response_length"`
	Temperature       float64       `yaml:"temperature"`
	MaxTokens         int           `yaml:"max_tokens"`
	SystemPrompt      string        `yaml:"system_prompt"`

	// Client-side limits, per provider. Zero RateLimit disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	CacheTTL time.Duration `yaml:"cache_ttl"`

	Providers map[string]ProviderSettings `yaml:"providers"`
}

// DefaultConfig returns the default fallback configuration
func DefaultConfig() *Config {
	return &Config{
		Priority:          append([]string(nil), DefaultPriority...),
		RetryAttempts:     2,
		Timeout:           defaultTimeout,
		CutoffScore:       0.3,
		MaxResponseLength: DefaultMaxResponseLength,
		Temperature:       0.7,
		MaxTokens:         250,
		SystemPrompt:      DefaultSystemPrompt,
		RateLimit:         1,
		Burst:             5,
		CacheTTL:          10 * time.Minute,
		Providers:         make(map[string]ProviderSettings),
	}
}

// NewProviders builds the providers named in config.Priority that have an API key,
// in priority order. Unknown or failing providers are skipped and reported.
func NewProviders(ctx context.Context, config *Config, logger *zap.Logger) ([]Provider, []error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var providers []Provider
	var errs []error
	for rank, name := range config.Priority {
		settings, ok := config.Providers[name]
		if !ok || settings.APIKey == "" {
			continue
		}

		pc := ProviderConfig{
			Name:        name,
			Rank:        rank,
			APIKey:      settings.APIKey,
			Model:       settings.Model,
			BaseURL:     settings.BaseURL,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
			Timeout:     config.Timeout,
			Headers:     settings.Headers,
		}

		switch {
		case name == "huggingface":
			providers = append(providers, NewHuggingFaceClient(pc))
		case name == "gemini":
			g, err := NewGeminiProvider(ctx, pc)
			if err != nil {
				errs = append(errs, fmt.Errorf("provider %s: %w", name, err))
				continue
			}
			providers = append(providers, g)
		case knownEndpoints[name].BaseURL != "" || pc.BaseURL != "":
			providers = append(providers, NewClient(pc))
		default:
			errs = append(errs, fmt.Errorf("provider %s: no endpoint known, set base_url", name))
			continue
		}
		logger.Debug("provider enabled", zap.String("provider", name), zap.Int("rank", rank))
	}
	return providers, errs
}

// Chain tries providers in priority order with a per-provider retry budget
type Chain struct {
	providers []Provider
	config    *Config
	limiter   *RateLimiter
	cache     *ResponseCache
	metrics   *Metrics
	logger    *zap.Logger
}

// NewChain creates a fallback chain over providers, which must already be in priority order
func NewChain(config *Config, providers []Provider, metrics *Metrics, logger *zap.Logger) *Chain {
	if config == nil {
		config = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := NewRateLimiter()
	for _, p := range providers {
		limiter.Register(p.Name(), config.RateLimit, config.Burst)
	}

	return &Chain{
		providers: providers,
		config:    config,
		limiter:   limiter,
		cache:     NewResponseCache(config.CacheTTL),
		metrics:   metrics,
		logger:    logger,
	}
}

// Providers returns the provider names in priority order
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Limiter exposes the per-provider buckets
func (c *Chain) Limiter() *RateLimiter { return c.limiter }

// Metrics returns the chain's collectors
func (c *Chain) Metrics() *Metrics { return c.metrics }

// ShouldUseAI reports whether a turn should go to the providers: at least one
// is configured and the input is a knowledge question, nothing matched, or
// the best score is under the cutoff.
func (c *Chain) ShouldUseAI(input string, matched bool, score float64) bool {
	if c == nil || len(c.providers) == 0 {
		return false
	}
	return IsKnowledgeQuestion(input) || !matched || score < c.config.CutoffScore
}

// TryGenerate returns the first successful, cleaned provider answer, or nil
// when every provider failed.
func (c *Chain) TryGenerate(ctx context.Context, input string, opts Options) *models.Response {
	if c == nil || len(c.providers) == 0 {
		return nil
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = c.config.SystemPrompt
	}

	if cached, ok := c.cache.Get(input, opts.Topic); ok {
		c.metrics.CacheHits.Inc()
		resp := c.response(cached.Text, cached.Provider, opts)
		resp.SetMeta("cached", true)
		return resp
	}

	attempts := c.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for _, p := range c.providers {
		for attempt := 1; attempt <= attempts; attempt++ {
			if err := ctx.Err(); err != nil {
				c.logger.Warn("ai fallback cancelled", zap.Error(err))
				return nil
			}

			if !c.limiter.Allow(p.Name()) {
				c.metrics.ProviderAttempts.WithLabelValues(p.Name(), string(ClassRateLimit)).Inc()
				c.logger.Info("provider throttled locally, advancing", zap.String("provider", p.Name()))
				break
			}

			text, err := c.call(ctx, p, input, opts)
			if err == nil {
				if cleaned := Clean(text, input, c.config.MaxResponseLength); cleaned != "" {
					c.metrics.ProviderAttempts.WithLabelValues(p.Name(), "ok").Inc()
					c.cache.Set(input, opts.Topic, &CachedAnswer{Text: cleaned, Provider: p.Name(), CachedAt: time.Now()})
					resp := c.response(cleaned, p.Name(), opts)
					resp.SetMeta("attempt", attempt)
					return resp
				}
				err = fmt.Errorf("%w: empty after cleanup", errParse)
			}

			perr := classify(p.Name(), 0, err)
			c.metrics.ProviderAttempts.WithLabelValues(p.Name(), string(perr.Class)).Inc()
			c.logger.Warn("provider attempt failed",
				zap.String("provider", p.Name()),
				zap.Int("attempt", attempt),
				zap.String("class", string(perr.Class)),
				zap.Error(perr))

			if !perr.Class.Retryable() {
				break
			}
		}
	}

	c.metrics.ChainExhausted.Inc()
	c.logger.Warn("all AI providers failed", zap.Int("providers", len(c.providers)))
	return nil
}

// call runs one attempt under its own timeout and converts panics into errors
func (c *Chain) call(ctx context.Context, p Provider, input string, opts Options) (text string, err error) {
	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	start := time.Now()
	text, err = p.GenerateResponse(attemptCtx, input, opts)
	c.metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if err != nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = &ProviderError{Provider: p.Name(), Class: ClassTimeout, Err: err}
	}
	return text, err
}

func (c *Chain) response(text, provider string, opts Options) *models.Response {
	topic := opts.Topic
	if topic == "" {
		topic = "ai-assistant"
	}
	resp := &models.Response{
		Text:      text,
		Topic:     topic,
		Kind:      models.KindAI,
		Sentiment: opts.Sentiment,
	}
	resp.SetMeta("provider", provider)
	return resp
}
