package agent

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

const (
	crossTopicScore = 3.0
	patternBonus    = 2.0
	contextBonus    = 1.0
	sentimentWeight = 0.5
)

// MatchError reports a topic whose scoring failed; the topic scores 0
type MatchError struct {
	Topic string
	Err   error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("matching topic %q failed: %v", e.Topic, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }

// MatchResult is the outcome of scoring input against one topic
type MatchResult struct {
	Score    float64
	Topic    *topic.Topic
	Pattern  *topic.Pattern
	Captures []string
	Forced   *models.Response
}

// Matcher scores input against the topics of a registry
type Matcher struct {
	registry *topic.Registry
	config   *Config
	logger   *zap.Logger
}

// NewMatcher creates a matcher
func NewMatcher(registry *topic.Registry, config *Config, logger *zap.Logger) *Matcher {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{registry: registry, config: config, logger: logger}
}

// CrossTopic runs the handlers of the active topics, in active order then
// registration order. The first handler returning a response whose target
// exists wins with a fixed score above any ordinary match.
func (m *Matcher) CrossTopic(input string, ctx *models.ConversationContext) *MatchResult {
	if ctx == nil {
		return nil
	}
	for _, name := range ctx.ActiveTopics {
		t, ok := m.registry.Get(name)
		if !ok {
			continue
		}
		for _, h := range t.CrossTopicHandlers() {
			resp := m.runHandler(t.Name(), h, input, ctx)
			if resp == nil {
				continue
			}
			target, ok := m.registry.Get(h.Target)
			if !ok {
				continue
			}
			return &MatchResult{Score: crossTopicScore, Topic: target, Forced: resp}
		}
	}
	return nil
}

func (m *Matcher) runHandler(owner string, h topic.CrossTopicHandler, input string, ctx *models.ConversationContext) (resp *models.Response) {
	if h.Handle == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("cross-topic handler panicked",
				zap.String("topic", owner),
				zap.String("target", h.Target),
				zap.Any("panic", r))
			resp = nil
		}
	}()
	return h.Handle(input, ctx.Clone())
}

// Score computes the ordinary match score of input against t
func (m *Matcher) Score(input string, analysis *nlp.Analysis, t *topic.Topic, ctx *models.ConversationContext) (result MatchResult, err error) {
	if ctx == nil {
		ctx = &models.ConversationContext{}
	}
	result.Topic = t
	defer func() {
		if r := recover(); r != nil {
			err = &MatchError{Topic: t.Name(), Err: fmt.Errorf("panic: %v", r)}
			result = MatchResult{Topic: t}
		}
	}()

	result.Pattern, result.Captures = t.FindPattern(input)

	if hook := t.MatchHook(); hook != nil {
		score, hookErr := hook(input, ctx.Clone())
		if hookErr != nil {
			return MatchResult{Topic: t}, &MatchError{Topic: t.Name(), Err: hookErr}
		}
		if score < 0 {
			score = 0
		}
		result.Score = score
		return result, nil
	}

	var stems []string
	if analysis != nil {
		stems = analysis.Stems
	}
	result.Score += float64(t.MatchKeywords(strings.ToLower(input), stems)) * m.config.KeywordWeight

	if result.Pattern != nil {
		result.Score += patternBonus
	}

	if ctx.IsActive(t.Name()) {
		result.Score += contextBonus
	}

	if bias, ok := t.SentimentBias(); ok {
		alignment := 1 - abs(bias-ctx.EmotionalState)
		result.Score += alignment * sentimentWeight
	}

	if result.Score < 0 {
		result.Score = 0
	}
	return result, nil
}

// Rank scores every topic and returns the results best first; ties keep registry order
func (m *Matcher) Rank(input string, analysis *nlp.Analysis, ctx *models.ConversationContext) []MatchResult {
	topics := m.registry.All()
	results := make([]MatchResult, 0, len(topics))
	for _, t := range topics {
		r, err := m.Score(input, analysis, t, ctx)
		if err != nil {
			m.logger.Warn("topic match failed", zap.String("topic", t.Name()), zap.Error(err))
			r = MatchResult{Topic: t}
		}
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// Best returns the cross-topic handoff if one fires, else the top ranked topic
func (m *Matcher) Best(input string, analysis *nlp.Analysis, ctx *models.ConversationContext) MatchResult {
	if forced := m.CrossTopic(input, ctx); forced != nil {
		return *forced
	}
	ranked := m.Rank(input, analysis, ctx)
	if len(ranked) == 0 {
		return MatchResult{}
	}
	return ranked[0]
}

// Matched reports whether r clears the minimum score
func (m *Matcher) Matched(r MatchResult) bool {
	return r.Topic != nil && (r.Forced != nil || r.Score >= m.config.MinMatchScore)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
