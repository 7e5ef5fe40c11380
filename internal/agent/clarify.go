package agent

import (
	"regexp"
	"strings"

	"github.com/hadesai/hades/internal/models"
)

var clarificationPattern = regexp.MustCompile(`(?i)^\s*(?:what(?:'s| is| are| does)|explain|tell me more about|how does)\s+(.+?)\s*\??\s*$`)

// clarify answers a follow-up question about a solution offered in the
// previous response. It returns nil when no explanation applies.
func (a *Agent) clarify(input string, previous *models.Response) *models.Response {
	if previous == nil || len(previous.Solutions) == 0 {
		return nil
	}
	m := clarificationPattern.FindStringSubmatch(input)
	if m == nil {
		return nil
	}
	term := strings.TrimSpace(m[1])

	for _, name := range strings.Split(previous.Topic, "+") {
		t, ok := a.registry.Get(name)
		if !ok {
			continue
		}
		if text, ok := t.Explain(term, previous.Solutions); ok {
			resp := &models.Response{
				Text:  text,
				Topic: t.Name(),
				Kind:  models.KindClarification,
			}
			resp.SetMeta("term", term)
			return resp
		}
	}
	return nil
}
