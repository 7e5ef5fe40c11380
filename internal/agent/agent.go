package agent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hadesai/hades/internal/inference"
	"github.com/hadesai/hades/internal/memory"
	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

// Options wires an Agent's collaborators. Only the registry is required.
type Options struct {
	ID       string
	Config   *Config
	Analyzer nlp.TextAnalyzer
	Chain    *inference.Chain
	Memory   *memory.Store
	Graph    *topic.Graph
	Recorder TurnRecorder
	Rand     *rand.Rand
	Metrics  *inference.Metrics
	Logger   *zap.Logger
}

// Agent runs the dialogue pipeline for one session. Turns are serialised.
type Agent struct {
	id       string
	config   *Config
	registry *topic.Registry
	analyzer nlp.TextAnalyzer

	matcher   *Matcher
	generator *Generator
	blender   *Blender
	context   *ContextManager

	memory   *memory.Store
	chain    *inference.Chain
	recorder TurnRecorder
	metrics  *inference.Metrics
	logger   *zap.Logger

	mu   sync.Mutex
	last *models.Response
	wg   sync.WaitGroup
}

// New creates an agent over registry
func New(registry *topic.Registry, opts Options) (*Agent, error) {
	if registry == nil {
		return nil, errors.New("agent: registry is required")
	}

	config := opts.Config
	if config == nil {
		config = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ID != "" {
		logger = logger.With(zap.String("session", opts.ID))
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = nlp.NewAnalyzer(nil)
	}
	rng := opts.Rand
	if rng == nil {
		seed := config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	graph := opts.Graph
	if graph == nil {
		graph = topic.NewGraph(registry)
	}
	mem := opts.Memory
	if mem == nil {
		mem = memory.NewStore(nil, nil, logger)
	}
	metrics := opts.Metrics
	if metrics == nil {
		if opts.Chain != nil {
			metrics = opts.Chain.Metrics()
		} else {
			metrics = inference.NewMetrics(nil)
		}
	}

	return &Agent{
		id:        opts.ID,
		config:    config,
		registry:  registry,
		analyzer:  analyzer,
		matcher:   NewMatcher(registry, config, logger),
		generator: NewGenerator(config, rng, graph, logger),
		blender:   NewBlender(registry),
		context:   NewContextManager(config, registry, mem, logger),
		memory:    mem,
		chain:     opts.Chain,
		recorder:  opts.Recorder,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// ID returns the session identifier
func (a *Agent) ID() string { return a.id }

// Context returns a copy of the conversation context
func (a *Agent) Context() *models.ConversationContext { return a.context.Snapshot() }

// Memory returns the agent's memory store
func (a *Agent) Memory() *memory.Store { return a.memory }

// LastResponse returns the response of the previous turn, or nil
func (a *Agent) LastResponse() *models.Response {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// turnResult carries what the audit log needs beyond the response
type turnResult struct {
	resp      *models.Response
	score     float64
	sentiment float64
}

// ProcessInput runs one turn. It never fails: invalid input gets a default
// fallback and internal failures a generic apology.
func (a *Agent) ProcessInput(ctx context.Context, input string) *models.Response {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	result := a.safeTurn(ctx, input)
	resp := result.resp

	a.last = resp
	a.metrics.Turns.WithLabelValues(string(resp.Kind)).Inc()
	a.record(input, result, time.Since(start))
	return resp
}

func (a *Agent) safeTurn(ctx context.Context, input string) (result turnResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("turn failed", zap.Any("panic", r), zap.Stack("stack"))
			result = turnResult{resp: &models.Response{Text: processingErrorText, Topic: "error", Kind: models.KindError}}
		}
	}()
	return a.turn(ctx, input)
}

func (a *Agent) turn(ctx context.Context, input string) turnResult {
	if strings.TrimSpace(input) == "" {
		a.logger.Debug("rejecting input", zap.Error(ErrInvalidInput))
		return turnResult{resp: a.generator.DefaultFallback()}
	}

	analysis := nlp.Analyze(a.analyzer, input)
	sentiment := analysis.Sentiment
	a.addMemory(memory.ShortTerm, models.MemoryItem{Data: input, Sentiment: &sentiment})

	if action, ok := matchAction(input); ok {
		resp := action.Handle(a, input)
		a.remember(input, resp, sentiment)
		return turnResult{resp: resp, sentiment: sentiment}
	}

	if resp := a.clarify(input, a.last); resp != nil {
		resp.Sentiment = sentiment
		a.context.Update(input, analysis, resp)
		a.remember(input, resp, sentiment)
		return turnResult{resp: resp, sentiment: sentiment}
	}

	snap := a.context.Snapshot()
	var (
		best   MatchResult
		ranked []MatchResult
	)
	if forced := a.matcher.CrossTopic(input, snap); forced != nil {
		best = *forced
	} else if ranked = a.matcher.Rank(input, analysis, snap); len(ranked) > 0 {
		best = ranked[0]
	}
	matched := a.matcher.Matched(best)

	var resp *models.Response
	if best.Forced == nil && a.chain.ShouldUseAI(input, matched, best.Score) {
		opts := inference.Options{
			Sentiment:  sentiment,
			IsFallback: !matched,
			Context:    a.memoryContext(input, snap.ActiveTopics),
		}
		if matched {
			opts.Topic = best.Topic.Name()
		}
		resp = a.chain.TryGenerate(ctx, input, opts)
	}

	if resp == nil {
		resp = a.localResponse(input, best, ranked, snap, analysis)
	}

	a.context.Update(input, analysis, resp)
	a.remember(input, resp, sentiment)
	return turnResult{resp: resp, score: best.Score, sentiment: sentiment}
}

// localResponse generates from the best match, blending with the runner-up when they are close
func (a *Agent) localResponse(input string, best MatchResult, ranked []MatchResult, ctx *models.ConversationContext, analysis *nlp.Analysis) *models.Response {
	primary := a.generator.Generate(input, best, ctx, analysis)
	if !a.shouldBlend(best, ranked) {
		return primary
	}
	secondary := a.generator.Generate(input, ranked[1], ctx, analysis)
	if primary.Kind != models.KindTopic || secondary.Kind != models.KindTopic {
		return primary
	}
	return a.blender.Blend(primary, secondary, ctx)
}

func (a *Agent) shouldBlend(best MatchResult, ranked []MatchResult) bool {
	if !a.config.EnableBlending || best.Forced != nil || len(ranked) < 2 {
		return false
	}
	second := ranked[1]
	return best.Score >= a.config.MinMatchScore &&
		second.Score >= a.config.MinMatchScore &&
		best.Score-second.Score <= a.config.BlendScoreMargin
}

// memoryContext returns related earlier exchanges, oldest first
func (a *Agent) memoryContext(input string, topics []string) []string {
	if a.config.MemoryContextItems <= 0 {
		return nil
	}
	related := a.memory.FindRelated(input, topics, memory.RelatedOptions{
		MinRelevance: memory.DefaultRelatedOptions().MinRelevance,
		MaxItems:     a.config.MemoryContextItems,
	})
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Timestamp.Before(related[j].Timestamp)
	})
	seen := make(map[string]bool, len(related))
	lines := make([]string, 0, len(related))
	for _, item := range related {
		line := memoryLine(item.MemoryItem)
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	return lines
}

func memoryLine(item models.MemoryItem) string {
	switch data := item.Data.(type) {
	case string:
		return data
	case map[string]interface{}:
		in, _ := data["input"].(string)
		out, _ := data["response"].(string)
		if in == "" && out == "" {
			return ""
		}
		return fmt.Sprintf("User: %s / Assistant: %s", in, out)
	default:
		return ""
	}
}

// remember appends the exchange to the episodic log, filed under its topic when registered
func (a *Agent) remember(input string, resp *models.Response, sentiment float64) {
	item := models.MemoryItem{
		Data: map[string]interface{}{
			"input":    input,
			"response": resp.Text,
			"kind":     string(resp.Kind),
		},
		Sentiment: &sentiment,
	}
	name := strings.SplitN(resp.Topic, "+", 2)[0]
	if _, ok := a.registry.Get(name); ok {
		item.Topic = name
	}
	a.addMemory(memory.Episodic, item)
}

func (a *Agent) addMemory(kind memory.Kind, item models.MemoryItem) {
	if err := a.memory.Add(kind, item); err != nil {
		a.logger.Warn("memory add failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// record hands the turn to the recorder in the background
func (a *Agent) record(input string, result turnResult, elapsed time.Duration) {
	if a.recorder == nil {
		return
	}
	resp := result.resp
	provider, _ := resp.Metadata["provider"].(string)
	turn := models.Turn{
		SessionID: a.id,
		Input:     input,
		Response:  resp.Text,
		Topic:     resp.Topic,
		Kind:      resp.Kind,
		Score:     result.score,
		Provider:  provider,
		Phase:     a.context.Snapshot().Phase,
		Sentiment: result.sentiment,
		Duration:  elapsed,
		Timestamp: time.Now(),
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := a.recorder.Record(ctx, turn); err != nil {
			a.logger.Warn("failed to record turn", zap.Error(err))
		}
	}()
}

// Close waits for pending audit writes and closes the memory store
func (a *Agent) Close() error {
	a.wg.Wait()
	return a.memory.Close()
}
