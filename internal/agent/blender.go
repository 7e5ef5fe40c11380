package agent

import (
	"math"
	"strings"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/nlp"
	"github.com/hadesai/hades/internal/topic"
)

const (
	activeShift   = 0.2
	minBlendRatio = 0.3
	blendFloor    = 0.2
	blendCeiling  = 0.8
)

// Blender fuses the responses of two competing topics
type Blender struct {
	registry *topic.Registry
}

// NewBlender creates a blender that looks topic priorities up in registry
func NewBlender(registry *topic.Registry) *Blender {
	return &Blender{registry: registry}
}

// Ratio returns the share of the primary response before clamping.
// The active topic is favoured when exactly one of the two is active.
func (b *Blender) Ratio(primary, secondary string, ctx *models.ConversationContext) float64 {
	p, s := b.priority(primary), b.priority(secondary)
	ratio := p / (p + s)

	pActive, sActive := ctx.IsActive(primary), ctx.IsActive(secondary)
	switch {
	case pActive && !sActive:
		ratio += activeShift
	case sActive && !pActive:
		ratio -= activeShift
	}
	return ratio
}

func (b *Blender) priority(name string) float64 {
	if b.registry != nil {
		if t, ok := b.registry.Get(name); ok {
			return t.Priority()
		}
	}
	return 1.0
}

// Blend interleaves the sentences of primary and secondary in proportion to
// their ratio. Primary is returned unchanged when the secondary share would
// be too large for a coherent blend.
func (b *Blender) Blend(primary, secondary *models.Response, ctx *models.ConversationContext) *models.Response {
	if primary == nil {
		return secondary
	}
	if secondary == nil {
		return primary
	}

	ratio := b.Ratio(primary.Topic, secondary.Topic, ctx)
	if ratio < minBlendRatio {
		return primary
	}
	ratio = nlp.Clamp(ratio, blendFloor, blendCeiling)

	out := &models.Response{
		Text:       interleave(nlp.SplitSentences(primary.Text), nlp.SplitSentences(secondary.Text), ratio),
		Topic:      primary.Topic + "+" + secondary.Topic,
		Solutions:  unionSolutions(primary.Solutions, secondary.Solutions),
		Kind:       models.KindBlended,
		Sentiment:  primary.Sentiment*ratio + secondary.Sentiment*(1-ratio),
		BlendRatio: ratio,
	}
	out.SetMeta("blendRatio", ratio)
	out.SetMeta("components", []string{primary.Topic, secondary.Topic})
	return out
}

// interleave takes round(ratio*total) sentences from a and the rest from b,
// at least one from each side, starting with a.
func interleave(a, b []string, ratio float64) string {
	if len(a) == 0 {
		return strings.Join(b, " ")
	}
	if len(b) == 0 {
		return strings.Join(a, " ")
	}

	total := len(a)
	if len(b) > total {
		total = len(b)
	}
	if total < 2 {
		total = 2
	}

	kA := clampInt(int(math.Round(ratio*float64(total))), 1, len(a))
	kB := clampInt(total-kA, 1, len(b))

	merged := make([]string, 0, kA+kB)
	i, j := 0, 0
	for i < kA || j < kB {
		// Take from a unless it is ahead of its share.
		if i < kA && (j >= kB || i*kB <= j*kA) {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	return strings.Join(merged, " ")
}

func unionSolutions(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
