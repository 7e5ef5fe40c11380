package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hadesai/hades/internal/models"
)

// Action is a built-in command recognised before topic scoring
type Action struct {
	Name    string
	Pattern *regexp.Regexp
	Handle  func(a *Agent, input string) *models.Response
}

var builtinActions = []Action{
	{
		Name:    "help",
		Pattern: regexp.MustCompile(`(?i)^\s*(help|commands|what can you do)\b`),
		Handle:  (*Agent).helpAction,
	},
	{
		Name:    "exit",
		Pattern: regexp.MustCompile(`(?i)^\s*(exit|quit|goodbye|bye)\b`),
		Handle:  (*Agent).exitAction,
	},
	{
		Name:    "topics",
		Pattern: regexp.MustCompile(`(?i)^\s*(list topics|show topics|topics)\b`),
		Handle:  (*Agent).topicsAction,
	},
	{
		Name:    "reset",
		Pattern: regexp.MustCompile(`(?i)^\s*(reset|start over|new topic)\b`),
		Handle:  (*Agent).resetAction,
	},
}

// matchAction returns the first built-in action matching the raw input
func matchAction(input string) (Action, bool) {
	for _, a := range builtinActions {
		if a.Pattern.MatchString(input) {
			return a, true
		}
	}
	return Action{}, false
}

func (a *Agent) helpAction(string) *models.Response {
	names := a.registry.Names()
	if len(names) > 5 {
		names = names[:5]
	}
	var b strings.Builder
	b.WriteString("I can help with topics like ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\nCommands: help, topics, reset, exit.")
	return actionResponse("help", b.String())
}

func (a *Agent) exitAction(string) *models.Response {
	a.context.Close()
	resp := actionResponse("exit", exitText)
	resp.Exit = true
	return resp
}

func (a *Agent) topicsAction(string) *models.Response {
	return actionResponse("topics", fmt.Sprintf("Available topics: %s", strings.Join(a.registry.Names(), ", ")))
}

func (a *Agent) resetAction(string) *models.Response {
	a.context.ClearTopics()
	return actionResponse("reset", "Okay, let's start fresh. What would you like to talk about?")
}

func actionResponse(name, text string) *models.Response {
	resp := &models.Response{Text: text, Topic: "system", Kind: models.KindAction}
	resp.SetMeta("action", name)
	return resp
}
