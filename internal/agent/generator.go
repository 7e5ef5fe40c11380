package agent

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

var captureRef = regexp.MustCompile(`%(\d+)`)

const solutionRef = "%solution"

// Generator turns match results into responses
type Generator struct {
	config *Config
	rng    *rand.Rand
	graph  *topic.Graph
	logger *zap.Logger
}

// NewGenerator creates a generator. rng must not be shared across goroutines.
func NewGenerator(config *Config, rng *rand.Rand, graph *topic.Graph, logger *zap.Logger) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{config: config, rng: rng, graph: graph, logger: logger}
}

// Generate produces the response for match. Forced cross-topic responses are
// returned verbatim; missing or weak matches go to the contextual fallback.
func (g *Generator) Generate(input string, match MatchResult, ctx *models.ConversationContext, analysis *nlp.Analysis) *models.Response {
	if ctx == nil {
		ctx = &models.ConversationContext{}
	}
	sentiment := 0.0
	if analysis != nil {
		sentiment = analysis.Sentiment
	}

	if match.Forced != nil {
		resp := *match.Forced
		resp.Kind = models.KindCrossTopic
		if match.Topic != nil {
			resp.Topic = match.Topic.Name()
		}
		resp.Metadata = copyMeta(match.Forced.Metadata)
		resp.SetMeta("source", append([]string(nil), ctx.ActiveTopics...))
		return &resp
	}

	if match.Topic == nil || match.Score < g.config.MinMatchScore {
		return g.Fallback(input, analysis)
	}

	resp, err := g.topicResponse(input, match, ctx)
	if err != nil {
		g.logger.Warn("topic response failed", zap.String("topic", match.Topic.Name()), zap.Error(err))
		return g.Fallback(input, analysis)
	}

	if sentiment < g.config.EmpathyThreshold {
		resp.Text = g.addEmpathy(resp.Text)
	}

	resp.Topic = match.Topic.Name()
	resp.Kind = models.KindTopic
	resp.Sentiment = sentiment
	resp.SetMeta("score", match.Score)
	if match.Pattern != nil {
		resp.SetMeta("pattern", match.Pattern.Source)
	}
	resp.SetMeta("sentiment", sentiment)
	g.suggestRelated(resp, match.Topic)
	return resp
}

// topicResponse runs the topic's generation hook, then the default template path
func (g *Generator) topicResponse(input string, match MatchResult, ctx *models.ConversationContext) (resp *models.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			resp = nil
		}
	}()

	t := match.Topic
	if hook := t.GenerateHook(); hook != nil {
		m := &topic.Match{Topic: t, Pattern: match.Pattern, Captures: match.Captures, Score: match.Score}
		if custom := hook(input, m, ctx.Clone()); custom != nil {
			out := *custom
			out.Metadata = copyMeta(custom.Metadata)
			out.Solutions = append([]string(nil), custom.Solutions...)
			g.fillSolution(&out, t, input, ctx)
			return &out, nil
		}
	}

	templates := t.DefaultResponses()
	if match.Pattern != nil && len(match.Pattern.Responses) > 0 {
		templates = match.Pattern.Responses
	}
	text := templates[g.rng.Intn(len(templates))]

	if match.Pattern != nil && match.Pattern.Transform != nil {
		text = match.Pattern.Transform(text, input, ctx.Clone())
	}

	// Captured user text is substituted last so it is never expanded.
	resp = &models.Response{Text: text}
	g.fillSolution(resp, t, input, ctx)
	resp.Text = captureRef.ReplaceAllStringFunc(resp.Text, func(ref string) string {
		n, _ := strconv.Atoi(ref[1:])
		if n < len(match.Captures) {
			return strings.TrimSpace(match.Captures[n])
		}
		return ""
	})
	return resp, nil
}

// fillSolution substitutes %solution in resp.Text and records the chosen solution
func (g *Generator) fillSolution(resp *models.Response, t *topic.Topic, input string, ctx *models.ConversationContext) {
	if !strings.Contains(resp.Text, solutionRef) {
		return
	}
	solution := t.Solution(input, ctx.Clone(), g.rng)
	if solution == "" {
		solution = noSolutionText
	} else if len(resp.Solutions) == 0 {
		resp.Solutions = []string{solution}
	}
	resp.Text = strings.ReplaceAll(resp.Text, solutionRef, solution)
}

// suggestRelated attaches related topics from the graph, occasionally mentioning them
func (g *Generator) suggestRelated(resp *models.Response, t *topic.Topic) {
	if g.graph == nil || g.config.MaxRelatedSuggestions <= 0 {
		return
	}
	edges := g.graph.Related(t.Name(), g.config.MaxRelatedSuggestions)
	if len(edges) == 0 {
		return
	}
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = e.To
	}
	resp.SetMeta("relatedTopics", names)
	if g.rng.Float64() > 0.6 {
		resp.Text += "\n\nRelated topics: " + strings.Join(names, ", ")
	}
}

// Fallback picks a contextual fallback for input that no topic handled
func (g *Generator) Fallback(input string, analysis *nlp.Analysis) *models.Response {
	sentiment := 0.0
	if analysis != nil {
		sentiment = analysis.Sentiment
	}

	var (
		bank  []string
		kind  models.ResponseKind
		topic string
	)
	switch {
	case sentiment < g.config.EmotionalFallbackThreshold:
		bank, kind, topic = emotionalFallbacks, models.KindEmotional, "emotional-support"
	case strings.Contains(input, "?"):
		bank, kind, topic = questionFallbacks, models.KindQuestion, "clarification"
	case len(strings.Fields(input)) < 4:
		bank, kind, topic = shortInputFallbacks, models.KindShortInput, "general"
	default:
		bank, kind, topic = defaultFallbacks, models.KindDefault, "general"
	}

	return &models.Response{
		Text:      g.pick(bank),
		Topic:     topic,
		Kind:      kind,
		Sentiment: sentiment,
	}
}

// DefaultFallback returns a generic fallback regardless of input
func (g *Generator) DefaultFallback() *models.Response {
	return &models.Response{Text: g.pick(defaultFallbacks), Topic: "general", Kind: models.KindDefault}
}

func (g *Generator) addEmpathy(text string) string {
	return g.pick(empatheticPhrases) + " " + text
}

func (g *Generator) pick(bank []string) string {
	return bank[g.rng.Intn(len(bank))]
}

func copyMeta(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
