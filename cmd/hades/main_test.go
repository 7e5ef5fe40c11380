package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hadesai/hades/internal/agent"
	"github.com/hadesai/hades/internal/config"
	"github.com/hadesai/hades/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadScript(t *testing.T) {
	script, err := readScript(strings.NewReader(`
sessions:
  alice:
    - I need help with savings
    - what is the 50-30-20 rule?
  bob:
    - hi
`))
	require.NoError(t, err)
	assert.Len(t, script.Sessions, 2)
	assert.Equal(t, []string{"I need help with savings", "what is the 50-30-20 rule?"}, script.Sessions["alice"])

	_, err = readScript(strings.NewReader("sessions: {}\n"))
	assert.Error(t, err)
	_, err = readScript(strings.NewReader("sessions: [\n"))
	assert.Error(t, err)
}

func TestReplay(t *testing.T) {
	cfg := config.Default()
	cfg.Agent.Seed = 7
	registry, graph := newRegistry(cfg, zap.NewNop())
	sessions := agent.NewSessions(registry, agent.Options{Config: cfg.Agent, Graph: graph}, nil, nil)
	defer sessions.CloseAll()

	pool := agent.NewPool(sessions, &agent.PoolConfig{Workers: 3, QueueSize: 2})
	defer pool.Shutdown(5 * time.Second)

	script := &batchScript{Sessions: map[string][]string{
		"alice": {"I need help with savings", "what is the 50-30-20 rule?", "thanks"},
		"bob":   {"I feel anxious and overwhelmed", "bye"},
	}}

	results, err := replay(context.Background(), pool, script)
	require.NoError(t, err)
	require.Len(t, results["alice"], 3)
	require.Len(t, results["bob"], 2)

	for id, inputs := range script.Sessions {
		for i, r := range results[id] {
			assert.Equal(t, inputs[i], r.Input)
			assert.NoError(t, r.Err)
		}
	}
	assert.Equal(t, "personal_finance", results["alice"][0].Response.Topic)
	offered := results["alice"][0].Response.Solutions
	require.NotEmpty(t, offered)
	if strings.Contains(offered[0], "50-30-20") {
		assert.Equal(t, models.KindClarification, results["alice"][1].Response.Kind)
	} else {
		assert.NotEqual(t, models.KindClarification, results["alice"][1].Response.Kind)
	}
	assert.True(t, results["bob"][1].Response.Exit)
}

func TestDisplayWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf, false, 0)

	err := d.WriteResponse(&models.Response{
		Text:     "Line one.\n\nRelated topics: a, b",
		Topic:    "personal_finance",
		Kind:     models.KindAI,
		Metadata: map[string]interface{}{"provider": "groq"},
	}, 1500*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "HADES: Line one.\n\nRelated topics: a, b\n[1.50s | ai-response | personal_finance | groq]\n\n", buf.String())
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", Colorize("x", ColorRed, false))
	assert.Equal(t, "\033[31mx\033[0m", Colorize("x", ColorRed, true))
	assert.Equal(t, ColorYellow, kindColor(models.KindQuestion))
	assert.Equal(t, ColorMagenta, kindColor(models.KindAI))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\nb   c", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestProgressIndicatorStopsQuietly(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressIndicator(&buf, "thinking...")
	p.Start(time.Hour)
	p.Stop()
	assert.Empty(t, buf.String())
}
