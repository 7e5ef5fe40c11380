package agent

import (
	"strings"
	"sync"

	"github.com/hadesai/hades/internal/memory"
	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

const (
	profileKey       = "profile"
	sentimentWindow  = 3
	emotionalCarry   = 0.4
	emotionalRecency = 0.6
)

// ContextManager owns the conversation context of one session
type ContextManager struct {
	mu       sync.RWMutex
	ctx      models.ConversationContext
	config   *Config
	registry *topic.Registry
	memory   *memory.Store
	logger   *zap.Logger
}

// NewContextManager creates the context for a new session. A profile saved in
// long-term memory is restored.
func NewContextManager(config *Config, registry *topic.Registry, mem *memory.Store, logger *zap.Logger) *ContextManager {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cm := &ContextManager{
		ctx: models.ConversationContext{
			Phase:       models.PhaseInit,
			UserProfile: make(map[string]interface{}),
		},
		config:   config,
		registry: registry,
		memory:   mem,
		logger:   logger,
	}
	cm.restoreProfile()
	return cm
}

func (cm *ContextManager) restoreProfile() {
	if cm.memory == nil {
		return
	}
	v, ok := cm.memory.GetLongTerm(profileKey)
	if !ok {
		return
	}
	profile, ok := v.(map[string]interface{})
	if !ok {
		cm.logger.Warn("ignoring malformed stored profile")
		return
	}
	for k, val := range profile {
		cm.ctx.UserProfile[k] = val
	}
}

// Snapshot returns a copy of the current context
func (cm *ContextManager) Snapshot() *models.ConversationContext {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.ctx.Clone()
}

// Update applies one completed turn: active topics, phase, emotional state, profile
func (cm *ContextManager) Update(input string, analysis *nlp.Analysis, resp *models.Response) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if resp != nil {
		// Primary topic of a blend ends up most recent.
		names := strings.Split(resp.Topic, "+")
		for i := len(names) - 1; i >= 0; i-- {
			cm.activateLocked(names[i])
		}
	}

	cm.advancePhaseLocked(input, resp)
	cm.updateEmotionLocked(analysis)
	cm.updateProfileLocked(input, resp)
}

// activateLocked moves name to the front of the active topics, evicting the oldest beyond the limit
func (cm *ContextManager) activateLocked(name string) {
	if name == "" || cm.registry == nil {
		return
	}
	if _, ok := cm.registry.Get(name); !ok {
		return
	}

	active := make([]string, 0, len(cm.ctx.ActiveTopics)+1)
	active = append(active, name)
	for _, t := range cm.ctx.ActiveTopics {
		if t != name {
			active = append(active, t)
		}
	}

	limit := cm.config.MaxTopicsActive
	if limit <= 0 {
		limit = 3
	}
	if len(active) > limit {
		active = active[:limit]
	}
	cm.ctx.ActiveTopics = active
}

// advancePhaseLocked takes at most one forward step
func (cm *ContextManager) advancePhaseLocked(input string, resp *models.Response) {
	switch cm.ctx.Phase {
	case models.PhaseInit, "":
		respWords := 0
		if resp != nil {
			respWords = len(strings.Fields(resp.Text))
		}
		if len(strings.Fields(input)) > cm.config.ShortInputWords || respWords > cm.config.ShortResponseWords {
			cm.setPhaseLocked(models.PhaseExplore)
		} else if cm.ctx.Phase == "" {
			cm.ctx.Phase = models.PhaseInit
		}
	case models.PhaseExplore:
		if len(cm.ctx.ActiveTopics) > 0 {
			cm.setPhaseLocked(models.PhaseDeepDive)
		}
	case models.PhaseDeepDive:
		if resp != nil && resp.Kind == models.KindBlended && resp.BlendRatio > 0.6 {
			cm.setPhaseLocked(models.PhaseResolve)
		}
	}
}

func (cm *ContextManager) setPhaseLocked(p models.Phase) {
	cm.logger.Debug("phase transition", zap.String("from", string(cm.ctx.Phase)), zap.String("to", string(p)))
	cm.ctx.Phase = p
}

func (cm *ContextManager) updateEmotionLocked(analysis *nlp.Analysis) {
	recent := 0.0
	switch {
	case cm.memory != nil:
		recent = cm.memory.RecentSentimentAverage(sentimentWindow)
	case analysis != nil:
		recent = analysis.Sentiment
	}
	cm.ctx.EmotionalState = nlp.Clamp(emotionalCarry*cm.ctx.EmotionalState+emotionalRecency*recent, -1, 1)
}

func (cm *ContextManager) updateProfileLocked(input string, resp *models.Response) {
	if resp == nil || cm.registry == nil {
		return
	}
	changed := false
	for _, name := range strings.Split(resp.Topic, "+") {
		t, ok := cm.registry.Get(name)
		if !ok {
			continue
		}
		updates := cm.profileHook(t, input)
		for k, v := range updates {
			cm.ctx.UserProfile[k] = v
			changed = true
		}
	}
	if changed && cm.memory != nil {
		profile := make(map[string]interface{}, len(cm.ctx.UserProfile))
		for k, v := range cm.ctx.UserProfile {
			profile[k] = v
		}
		cm.memory.SetLongTerm(profileKey, profile)
	}
}

func (cm *ContextManager) profileHook(t *topic.Topic, input string) (updates map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			cm.logger.Warn("profile hook panicked", zap.String("topic", t.Name()), zap.Any("panic", r))
			updates = nil
		}
	}()
	profile := make(map[string]interface{}, len(cm.ctx.UserProfile))
	for k, v := range cm.ctx.UserProfile {
		profile[k] = v
	}
	return t.UpdateProfile(input, profile)
}

// ClearTopics empties the active topics
func (cm *ContextManager) ClearTopics() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.ctx.ActiveTopics = nil
}

// Close moves the conversation to its terminal phase
func (cm *ContextManager) Close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.setPhaseLocked(models.PhaseClose)
}
