package inference

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		input string
		want  string
	}{
		{"plain", "A budget is a plan.", "", "A budget is a plan."},
		{"inst block", "[INST] You are HADES [/INST]\n\nA budget is a plan.</s>", "", "A budget is a plan."},
		{"echoed prompt", "what is a budget? A budget is a plan.", "what is a budget?", "A budget is a plan."},
		{"role prefix", "Assistant: Sure thing.", "", "Sure thing."},
		{"whitespace", "Line one.\n\n  Line   two.", "", "Line one. Line two."},
		{"quotes", `"Quoted answer."`, "", "Quoted answer."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.text, tt.input, 0))
		})
	}
}

func TestCleanVerbose(t *testing.T) {
	long := "Saving early matters because of compounding. " + strings.Repeat("More detail follows here. ", 30)
	assert.Equal(t, "Saving early matters because of compounding.", Clean(long, "", 200))

	oneSentence := strings.Repeat("word ", 100)
	got := Clean(oneSentence, "", 50)
	assert.LessOrEqual(t, len(got), 50)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.False(t, strings.Contains(got, "wor..."), "cut on a word boundary")
}

func TestTruncateMultibyte(t *testing.T) {
	got := truncate(strings.Repeat("é", 40), 21)
	assert.LessOrEqual(t, len(got), 21)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, strings.HasPrefix(got, "éé"))
}
