package agent

import (
	"strings"
	"testing"

	"github.com/hadesai/hades/internal/models"
	"github.com/hadesai/hades/internal/topic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blendRegistry(t *testing.T, pPriority, sPriority float64) *topic.Registry {
	return fixtureRegistry(t,
		topic.Definition{Name: "finance", Priority: pPriority},
		topic.Definition{Name: "career", Priority: sPriority},
	)
}

func TestBlendRatio(t *testing.T) {
	b := NewBlender(blendRegistry(t, 1.2, 1.0))

	assert.InDelta(t, 1.2/2.2, b.Ratio("finance", "career", nil), 1e-9)
	assert.InDelta(t, 1.2/2.2+0.2, b.Ratio("finance", "career", &models.ConversationContext{ActiveTopics: []string{"finance"}}), 1e-9)
	assert.InDelta(t, 1.2/2.2-0.2, b.Ratio("finance", "career", &models.ConversationContext{ActiveTopics: []string{"career"}}), 1e-9)
	assert.InDelta(t, 1.2/2.2, b.Ratio("finance", "career", &models.ConversationContext{ActiveTopics: []string{"career", "finance"}}), 1e-9)
	assert.InDelta(t, 0.5, b.Ratio("unknown", "other", nil), 1e-9)
}

func TestBlendInterleavesSentences(t *testing.T) {
	b := NewBlender(blendRegistry(t, 1.0, 1.0))
	primary := &models.Response{
		Text:      "P one. P two. P three.",
		Topic:     "finance",
		Solutions: []string{"budget", "save"},
		Sentiment: 0.4,
	}
	secondary := &models.Response{
		Text:      "S one. S two. S three.",
		Topic:     "career",
		Solutions: []string{"save", "network"},
		Sentiment: -0.2,
	}

	out := b.Blend(primary, secondary, nil)
	require.NotNil(t, out)
	assert.Equal(t, models.KindBlended, out.Kind)
	assert.Equal(t, "finance+career", out.Topic)
	assert.Equal(t, "P one. S one. P two.", out.Text)
	assert.Equal(t, []string{"budget", "save", "network"}, out.Solutions)
	assert.InDelta(t, 0.5, out.BlendRatio, 1e-9)
	assert.InDelta(t, 0.1, out.Sentiment, 1e-9)
	assert.Equal(t, []string{"finance", "career"}, out.Metadata["components"])
}

func TestBlendSkippedWhenPrimaryShareTooSmall(t *testing.T) {
	b := NewBlender(blendRegistry(t, 1.0, 3.0))
	primary := &models.Response{Text: "Primary.", Topic: "finance"}
	secondary := &models.Response{Text: "Secondary.", Topic: "career"}

	out := b.Blend(primary, secondary, nil)
	assert.Same(t, primary, out)
}

func TestBlendRatioClamped(t *testing.T) {
	b := NewBlender(blendRegistry(t, 9.0, 1.0))
	primary := &models.Response{Text: "A1. A2. A3. A4. A5.", Topic: "finance"}
	secondary := &models.Response{Text: "B1. B2.", Topic: "career"}

	out := b.Blend(primary, secondary, &models.ConversationContext{ActiveTopics: []string{"finance"}})
	assert.InDelta(t, 0.8, out.BlendRatio, 1e-9)
	assert.Equal(t, "A1. B1. A2. A3. A4.", out.Text)
}

func TestBlendRatioAlwaysWithinBounds(t *testing.T) {
	priorities := []float64{0.3, 0.5, 1.0, 1.2, 2.0, 5.0}
	contexts := []*models.ConversationContext{
		nil,
		{ActiveTopics: []string{"finance"}},
		{ActiveTopics: []string{"career"}},
	}
	for _, p := range priorities {
		for _, s := range priorities {
			b := NewBlender(blendRegistry(t, p, s))
			for _, ctx := range contexts {
				out := b.Blend(&models.Response{Text: "A.", Topic: "finance"}, &models.Response{Text: "B.", Topic: "career"}, ctx)
				if out.Kind != models.KindBlended {
					continue
				}
				assert.GreaterOrEqual(t, out.BlendRatio, 0.2)
				assert.LessOrEqual(t, out.BlendRatio, 0.8)
			}
		}
	}
}

func TestInterleave(t *testing.T) {
	assert.Equal(t, "B1. B2.", interleave(nil, []string{"B1.", "B2."}, 0.5))
	assert.Equal(t, "A1.", interleave([]string{"A1."}, nil, 0.5))
	assert.Equal(t, "A1. B1.", interleave([]string{"A1."}, []string{"B1."}, 0.8))

	out := interleave([]string{"A1.", "A2.", "A3.", "A4."}, []string{"B1.", "B2.", "B3.", "B4."}, 0.25)
	assert.Equal(t, 1, strings.Count(out, "A"))
	assert.Equal(t, 3, strings.Count(out, "B"))
	assert.True(t, strings.HasPrefix(out, "A1."))
}
