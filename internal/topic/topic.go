package topic

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hadesai/hades/internal/models"
)

// TransformFunc rewrites a chosen response template before placeholders are filled
type TransformFunc func(template, input string, ctx *models.ConversationContext) string

// MatchFunc replaces the default keyword/pattern/context scoring for a topic
type MatchFunc func(input string, ctx *models.ConversationContext) (float64, error)

// GenerateFunc overrides response generation; a nil response falls back to the default templates
type GenerateFunc func(input string, m *Match, ctx *models.ConversationContext) *models.Response

// SolutionFunc overrides solution selection
type SolutionFunc func(input string, ctx *models.ConversationContext) string

// ProfileFunc extracts profile fields from input; returned keys are merged into the profile
type ProfileFunc func(input string, profile map[string]interface{}) map[string]interface{}

// PatternSpec declares one regular-expression pattern and its response templates
type PatternSpec struct {
	Regex     string
	Responses []string
	Transform TransformFunc
}

// CrossTopicHandler can hand the turn to Target while the owning topic is active
type CrossTopicHandler struct {
	Target string
	Handle func(input string, ctx *models.ConversationContext) *models.Response
}

// Definition is the declarative form of a topic as authored
type Definition struct {
	Name                 string
	Description          string
	Keywords             []string
	Patterns             []PatternSpec
	DefaultResponses     []string
	Solutions            []string
	SolutionExplanations map[string]string
	CrossTopicHandlers   []CrossTopicHandler
	RelatedTopics        []string
	Dependencies         []string
	Priority             float64
	SentimentBias        *float64

	Match         MatchFunc
	Generate      GenerateFunc
	Solution      SolutionFunc
	UpdateProfile ProfileFunc
}

// Pattern is a compiled PatternSpec
type Pattern struct {
	Source    string
	Regex     *regexp.Regexp
	Responses []string
	Transform TransformFunc
}

// Match records which pattern of a topic matched and its capture groups.
// Captures[0] is the whole match, Captures[n] the n-th group.
type Match struct {
	Topic    *Topic
	Pattern  *Pattern
	Captures []string
	Score    float64
}

// Topic is an immutable, compiled topic
type Topic struct {
	def          Definition
	patterns     []*Pattern
	keywords     []string
	keywordStems []string
}

// Bias returns a float pointer, for Definition.SentimentBias literals
func Bias(v float64) *float64 { return &v }

// Compile validates def and precompiles its patterns. stem may be nil.
func Compile(def Definition, stem func(string) string) (*Topic, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, &LoadError{Reason: "topic must have a name"}
	}

	t := &Topic{def: def}
	for i, spec := range def.Patterns {
		src := spec.Regex
		if !strings.HasPrefix(src, "(?i)") {
			src = "(?i)" + src
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, &LoadError{Name: def.Name, Reason: fmt.Sprintf("pattern %d does not compile", i), Err: err}
		}
		t.patterns = append(t.patterns, &Pattern{
			Source:    spec.Regex,
			Regex:     re,
			Responses: spec.Responses,
			Transform: spec.Transform,
		})
	}

	for _, kw := range def.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		t.keywords = append(t.keywords, kw)
		if stem != nil {
			t.keywordStems = append(t.keywordStems, stem(kw))
		} else {
			t.keywordStems = append(t.keywordStems, kw)
		}
	}

	return t, nil
}

// Name returns the topic's unique name
func (t *Topic) Name() string { return t.def.Name }

// Description returns the topic description
func (t *Topic) Description() string { return t.def.Description }

// Keywords returns the lower-cased keywords
func (t *Topic) Keywords() []string { return t.keywords }

// Patterns returns the compiled patterns in declaration order
func (t *Topic) Patterns() []*Pattern { return t.patterns }

// Solutions returns the declared solutions
func (t *Topic) Solutions() []string { return t.def.Solutions }

// RelatedTopics returns the declared related topic names
func (t *Topic) RelatedTopics() []string { return t.def.RelatedTopics }

// Dependencies returns the declared dependency names
func (t *Topic) Dependencies() []string { return t.def.Dependencies }

// CrossTopicHandlers returns handlers in registration order
func (t *Topic) CrossTopicHandlers() []CrossTopicHandler { return t.def.CrossTopicHandlers }

// SentimentBias returns the declared bias, if any
func (t *Topic) SentimentBias() (float64, bool) {
	if t.def.SentimentBias == nil {
		return 0, false
	}
	return *t.def.SentimentBias, true
}

// Priority returns the topic priority, 1.0 when unset
func (t *Topic) Priority() float64 {
	if t.def.Priority <= 0 {
		return 1.0
	}
	return t.def.Priority
}

// MatchHook returns the custom scoring hook, or nil
func (t *Topic) MatchHook() MatchFunc { return t.def.Match }

// GenerateHook returns the custom generation hook, or nil
func (t *Topic) GenerateHook() GenerateFunc { return t.def.Generate }

// UpdateProfile runs the profile hook; nil when the topic has none
func (t *Topic) UpdateProfile(input string, profile map[string]interface{}) map[string]interface{} {
	if t.def.UpdateProfile == nil {
		return nil
	}
	return t.def.UpdateProfile(input, profile)
}

// MatchKeywords returns how many keywords (or their stems) occur in the lower-cased input.
// stems are the stems of the input tokens and may be nil.
func (t *Topic) MatchKeywords(lowerInput string, stems []string) int {
	n := 0
	for i, kw := range t.keywords {
		if strings.Contains(lowerInput, kw) {
			n++
			continue
		}
		stem := t.keywordStems[i]
		for _, s := range stems {
			if s == stem {
				n++
				break
			}
		}
	}
	return n
}

// FindPattern returns the first pattern matching input with its capture groups
func (t *Topic) FindPattern(input string) (*Pattern, []string) {
	for _, p := range t.patterns {
		if m := p.Regex.FindStringSubmatch(input); m != nil {
			return p, m
		}
	}
	return nil, nil
}

// DefaultResponses returns the topic-level templates used when no pattern matched
func (t *Topic) DefaultResponses() []string {
	if len(t.def.DefaultResponses) > 0 {
		return t.def.DefaultResponses
	}
	return []string{fmt.Sprintf("Tell me more about %s.", strings.ReplaceAll(t.def.Name, "_", " "))}
}

// Solution picks a solution through the hook, or uniformly from Solutions
func (t *Topic) Solution(input string, ctx *models.ConversationContext, rng *rand.Rand) string {
	if t.def.Solution != nil {
		if s := t.def.Solution(input, ctx); s != "" {
			return s
		}
	}
	if len(t.def.Solutions) == 0 {
		return ""
	}
	return t.def.Solutions[rng.Intn(len(t.def.Solutions))]
}

// minExplainTerm is the shortest term Explain will look up
const minExplainTerm = 3

// Explain returns the explanation for a term asked about after the offered
// solutions were given. Only explanations whose key appears in one of the
// offered solutions qualify, and the term must name that key or a phrase of
// that solution as whole words.
func (t *Topic) Explain(term string, offered []string) (string, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if len([]rune(term)) < minExplainTerm || len(offered) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(t.def.SolutionExplanations))
	for key := range t.def.SolutionExplanations {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		k := strings.ToLower(key)
		for _, solution := range offered {
			solution = strings.ToLower(solution)
			if !containsPhrase(solution, k) {
				continue
			}
			if containsPhrase(term, k) || containsPhrase(solution, term) {
				return t.def.SolutionExplanations[key], true
			}
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs in text on word boundaries
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(phrase); {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
