package agent

import (
	"context"
	"errors"

	"github.com/hadesai/hades/internal/models"
)

// ErrInvalidInput marks empty or whitespace-only input
var ErrInvalidInput = errors.New("invalid input: empty text")

// TurnRecorder receives every completed turn, e.g. an audit log
type TurnRecorder interface {
	Record(ctx context.Context, turn models.Turn) error
}

// Config holds the dialogue engine configuration
type Config struct {
	MinMatchScore   float64 `yaml:"min_match_score"`
	KeywordWeight   float64 `yaml:"keyword_weight"`
	MaxTopicsActive int     `yaml:"max_topics_active"`

	EmpathyThreshold           float64 `yaml:"empathy_threshold"`
	EmotionalFallbackThreshold float64 `yaml:"emotional_fallback_threshold"`

	EnableBlending   bool    `yaml:"enable_blending"`
	BlendScoreMargin float64 `yaml:"blend_score_margin"`

	// Phase thresholds (words)
	ShortInputWords    int `yaml:"short_input_words"`
	ShortResponseWords int `yaml:"short_response_words"`

	MaxRelatedSuggestions int `yaml:"max_related_suggestions"`
	MemoryContextItems    int `yaml:"memory_context_items"`

	// Seed for response selection; 0 seeds from the clock
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MinMatchScore:              0.5,
		KeywordWeight:              0.75,
		MaxTopicsActive:            3,
		EmpathyThreshold:           -0.5,
		EmotionalFallbackThreshold: -0.3,
		EnableBlending:             true,
		BlendScoreMargin:           0.5,
		ShortInputWords:            8,
		ShortResponseWords:         15,
		MaxRelatedSuggestions:      2,
		MemoryContextItems:         3,
	}
}
