package inference

import (
	"regexp"
	"strings"
)

var (
	interrogative = regexp.MustCompile(`^(?:what|who|whom|whose|when|where|why|how|which)(?:'s|\s)`)
	directive     = regexp.MustCompile(`^(?:explain|define|describe|tell me about|can you explain|do you know)\b`)
	personal      = regexp.MustCompile(`\b(?:i|i'm|im|my|me|myself|we|our|you|your)\b`)
	smallTalk     = regexp.MustCompile(`^how (?:are|is|was) (?:you|it going|your day)\b`)
)

// IsKnowledgeQuestion reports whether input reads as an open factual question
// ("what is a roth ira?", "explain compound interest") rather than a personal
// statement a topic should handle.
func IsKnowledgeQuestion(input string) bool {
	q := strings.ToLower(strings.TrimSpace(input))
	if q == "" || smallTalk.MatchString(q) {
		return false
	}
	if prefix := directive.FindString(q); prefix != "" {
		return !personal.MatchString(q[len(prefix):])
	}
	if interrogative.MatchString(q) {
		return !personal.MatchString(q)
	}
	return false
}
