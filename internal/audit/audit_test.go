package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hadesai/hades/internal/models"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLog(t *testing.T) *SQLiteTurnLog {
	t.Helper()
	log, err := NewSQLiteTurnLog(filepath.Join(t.TempDir(), "nested", "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestRecordAndQuery(t *testing.T) {
	log := openLog(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	turns := []models.Turn{
		{SessionID: "a", Input: "I need help with savings", Response: "For savings...", Topic: "personal_finance", Kind: models.KindTopic, Score: 2.75, Phase: models.PhaseInit, Duration: 12 * time.Millisecond, Timestamp: base},
		{SessionID: "a", Input: "What is a Roth IRA?", Response: "A Roth IRA is...", Topic: "ai-assistant", Kind: models.KindAI, Provider: "openai", Phase: models.PhaseExplore, Duration: 800 * time.Millisecond, Timestamp: base.Add(time.Minute)},
		{SessionID: "b", Input: "hmm", Response: "Could you say more about that?", Topic: "general", Kind: models.KindShortInput, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, turn := range turns {
		require.NoError(t, log.Record(ctx, turn))
	}

	all, err := log.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hmm", all[0].Input)
	assert.True(t, all[2].Timestamp.Equal(base))

	for _, turn := range all {
		_, err := ulid.Parse(turn.ID)
		assert.NoError(t, err)
	}

	session, err := log.Query(ctx, Filter{SessionID: "a"})
	require.NoError(t, err)
	require.Len(t, session, 2)
	assert.Equal(t, "openai", session[0].Provider)
	assert.Equal(t, models.PhaseExplore, session[0].Phase)
	assert.Equal(t, 800*time.Millisecond, session[0].Duration)

	ai, err := log.Query(ctx, Filter{Kind: models.KindAI})
	require.NoError(t, err)
	assert.Len(t, ai, 1)

	recent, err := log.Query(ctx, Filter{Since: base.Add(30 * time.Second), Limit: 1})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].SessionID)

	paged, err := log.Query(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "What is a Roth IRA?", paged[0].Input)
}

func TestRecordKeepsExplicitID(t *testing.T) {
	log := openLog(t)
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, models.Turn{ID: "turn-1", SessionID: "s", Input: "x", Response: "y", Kind: models.KindDefault}))
	assert.Error(t, log.Record(ctx, models.Turn{ID: "turn-1", SessionID: "s", Input: "x", Response: "y", Kind: models.KindDefault}))

	turns, err := log.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "turn-1", turns[0].ID)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestStats(t *testing.T) {
	log := openLog(t)
	ctx := context.Background()
	now := time.Now()

	record := func(kind models.ResponseKind, d time.Duration) {
		require.NoError(t, log.Record(ctx, models.Turn{SessionID: "s", Input: "x", Response: "y", Kind: kind, Duration: d, Timestamp: now}))
	}
	record(models.KindAI, 300*time.Millisecond)
	record(models.KindTopic, 100*time.Millisecond)
	record(models.KindDefault, 200*time.Millisecond)
	record(models.KindEmotional, 200*time.Millisecond)

	stats, err := log.Stats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.AIAnswers)
	assert.Equal(t, 2, stats.Fallbacks)
	assert.Equal(t, 200*time.Millisecond, stats.AverageDuration)
	assert.Equal(t, 1, stats.ByKind[models.KindTopic])

	empty, err := log.Stats(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
}

func TestInMemoryLog(t *testing.T) {
	log, err := NewSQLiteTurnLog(":memory:")
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Record(context.Background(), models.Turn{SessionID: "s", Input: "x", Response: "y", Kind: models.KindAction}))
	turns, err := log.Query(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
