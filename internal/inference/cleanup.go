package inference

import (
	"regexp"
	"strings"

	"github.com/hadesai/hades/internal/nlp"
)

// DefaultMaxResponseLength is the display limit for provider answers
const DefaultMaxResponseLength = 500

var (
	instBlock   = regexp.MustCompile(`(?s)\[INST\].*?\[/INST\]`)
	artifacts   = regexp.MustCompile(`\[/?INST\]|</?s>|<\|im_(?:start|end)\|>|<\|endoftext\|>|<<SYS>>|<</SYS>>`)
	rolePrefix  = regexp.MustCompile(`(?i)^(?:hades|assistant|ai|answer)\s*:\s*`)
	whitespaces = regexp.MustCompile(`\s+`)
)

// Clean strips instruction-formatting artifacts and prompt echoes from a
// provider answer. Answers longer than maxLen are reduced to their first
// sentence and then truncated on a word boundary.
func Clean(text, input string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxResponseLength
	}

	text = instBlock.ReplaceAllString(text, "")
	text = artifacts.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if input = strings.TrimSpace(input); input != "" && strings.HasPrefix(text, input) {
		text = strings.TrimSpace(strings.TrimPrefix(text, input))
	}
	text = rolePrefix.ReplaceAllString(text, "")
	text = whitespaces.ReplaceAllString(text, " ")
	text = strings.Trim(text, " \"")

	if len(text) <= maxLen {
		return text
	}

	if sentences := nlp.SplitSentences(text); len(sentences) > 0 {
		text = sentences[0]
	}
	return truncate(text, maxLen)
}

func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen - 3
	if cut < 1 {
		cut = maxLen
	}
	// Do not split a multi-byte rune.
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	if i := strings.LastIndexByte(head, ' '); i > cut/2 {
		head = head[:i]
	}
	return strings.TrimRight(head, " ,;:") + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
