package models

import "time"

// Message represents a single message sent to a chat-completion provider
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // Message content
}

// ResponseKind tags where a response came from
type ResponseKind string

const (
	KindTopic         ResponseKind = "topic-response"
	KindCrossTopic    ResponseKind = "cross-topic"
	KindAction        ResponseKind = "action"
	KindAI            ResponseKind = "ai-response"
	KindBlended       ResponseKind = "blended"
	KindClarification ResponseKind = "clarification"
	KindEmotional     ResponseKind = "emotional-fallback"
	KindQuestion      ResponseKind = "question-fallback"
	KindShortInput    ResponseKind = "short-input-fallback"
	KindDefault       ResponseKind = "default-fallback"
	KindError         ResponseKind = "processing-error"
)

// IsFallback reports whether the kind is one of the contextual fallback classes
func (k ResponseKind) IsFallback() bool {
	switch k {
	case KindEmotional, KindQuestion, KindShortInput, KindDefault:
		return true
	}
	return false
}

// Response is the reply produced for one conversational turn
type Response struct {
	Text       string                 `json:"response"`
	Topic      string                 `json:"topic"`
	Solutions  []string               `json:"solutions,omitempty"`
	Exit       bool                   `json:"exit,omitempty"`
	Kind       ResponseKind           `json:"type"`
	Sentiment  float64                `json:"sentiment"`
	BlendRatio float64                `json:"blend_ratio,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// SetMeta records a metadata value, allocating the map on first use
func (r *Response) SetMeta(key string, value interface{}) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]interface{})
	}
	r.Metadata[key] = value
}

// MemoryItem is one entry in any of the memory collections
type MemoryItem struct {
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic,omitempty"`
	Relevance float64     `json:"relevance"`
	Sentiment *float64    `json:"sentiment,omitempty"`
}

// Phase is the conversation phase tracked per session
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseExplore  Phase = "explore"
	PhaseDeepDive Phase = "deep-dive"
	PhaseResolve  Phase = "resolve"
	PhaseClose    Phase = "close"
)

// Turn represents a complete user-agent exchange, as written to the audit log
type Turn struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	Input     string        `json:"input"`
	Response  string        `json:"response"`
	Topic     string        `json:"topic"`
	Kind      ResponseKind  `json:"kind"`
	Score     float64       `json:"score"`
	Provider  string        `json:"provider,omitempty"`
	Phase     Phase         `json:"phase"`
	Sentiment float64       `json:"sentiment"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// ConversationContext is the per-session conversational state visible to topics
type ConversationContext struct {
	ActiveTopics   []string               `json:"active_topics"`
	EmotionalState float64                `json:"emotional_state"`
	Phase          Phase                  `json:"phase"`
	UserProfile    map[string]interface{} `json:"user_profile"`
}

// IsActive reports whether name is one of the active topics
func (c *ConversationContext) IsActive(name string) bool {
	if c == nil {
		return false
	}
	for _, t := range c.ActiveTopics {
		if t == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so hooks cannot mutate session state
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return &ConversationContext{Phase: PhaseInit, UserProfile: map[string]interface{}{}}
	}
	out := &ConversationContext{
		ActiveTopics:   append([]string(nil), c.ActiveTopics...),
		EmotionalState: c.EmotionalState,
		Phase:          c.Phase,
		UserProfile:    make(map[string]interface{}, len(c.UserProfile)),
	}
	for k, v := range c.UserProfile {
		out.UserProfile[k] = v
	}
	return out
}
