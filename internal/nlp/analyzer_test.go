package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeExpandsContractions(t *testing.T) {
	a := NewAnalyzer(nil)
	tokens := a.Tokenize("I'm  stressed, about MONEY!")
	assert.Equal(t, []string{"i", "am", "stressed", "about", "money"}, tokens)
}

func TestTokenizeCurlyApostrophe(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, []string{"i", "cannot", "sleep"}, a.Tokenize("I can’t sleep"))
}

func TestStem(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, "run", a.Stem("running"))

	plain := NewAnalyzer(&Config{EnableStemming: false, EnableSentiment: true})
	assert.Equal(t, "running", plain.Stem("running"))
}

func TestSentiment(t *testing.T) {
	a := NewAnalyzer(nil)

	tests := []struct {
		name  string
		input string
		check func(float64) bool
	}{
		{"negative", "I feel terrible and hopeless", func(s float64) bool { return s < -0.3 }},
		{"positive", "this is great", func(s float64) bool { return s > 0.5 }},
		{"negated", "not happy", func(s float64) bool { return s < 0 }},
		{"neutral", "the train leaves at noon", func(s float64) bool { return s == 0 }},
		{"empty", "", func(s float64) bool { return s == 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := a.Sentiment(a.Tokenize(tt.input))
			assert.True(t, tt.check(s), "sentiment %f for %q", s, tt.input)
			assert.GreaterOrEqual(t, s, -1.0)
			assert.LessOrEqual(t, s, 1.0)
		})
	}
}

func TestSentimentDisabled(t *testing.T) {
	a := NewAnalyzer(&Config{EnableStemming: true})
	assert.Zero(t, a.Sentiment([]string{"terrible"}))
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer(nil)
	result := Analyze(a, "I owe $1,200 and pay 20% interest over 6 months")

	require.NotNil(t, result)
	assert.Equal(t, "i owe $1,200 and pay 20% interest over 6 months", result.Text)
	assert.Len(t, result.Stems, len(result.Tokens))
	assert.Contains(t, result.Entities["amounts"], "$1,200")
	assert.Contains(t, result.Entities["percentages"], "20%")
	assert.Contains(t, result.Entities["durations"], "6 months")
	assert.Contains(t, result.Entities["keywords"], "interest")
	assert.NotContains(t, result.Entities["keywords"], "over")
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 0.25, Clamp(0.25, -1, 1))
}
