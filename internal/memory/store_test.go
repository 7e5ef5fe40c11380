package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hadesai/hades/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type memBlob struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func (m *memBlob) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memBlob) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

type failingBlob struct {
	saves int32
}

func (f *failingBlob) Load(ctx context.Context) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (f *failingBlob) Save(ctx context.Context, data []byte) error {
	atomic.AddInt32(&f.saves, 1)
	return errors.New("disk full")
}

func sentiment(v float64) *float64 { return &v }

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestShortTermCapacity(t *testing.T) {
	store := NewStore(&Config{ShortTermCapacity: 10}, nil, nil)
	defer store.Close()

	for i := 0; i < 13; i++ {
		require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: i}))
	}

	items := store.ShortTerm()
	require.Len(t, items, 10)
	for i, item := range items {
		assert.Equal(t, 12-i, item.Data, "short-term must be newest first")
	}
}

func TestAddDefaults(t *testing.T) {
	store := NewStore(nil, nil, nil)
	defer store.Close()

	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "x"}))
	item := store.Episodic()[0]
	assert.Equal(t, 1.0, item.Relevance)
	assert.False(t, item.Timestamp.IsZero())

	assert.Error(t, store.Add(Kind("archive"), models.MemoryItem{Data: "x"}))
}

func TestEpisodicCap(t *testing.T) {
	store := NewStore(&Config{MaxEpisodic: 3}, nil, nil)
	defer store.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: i}))
	}
	items := store.Episodic()
	require.Len(t, items, 3)
	assert.Equal(t, 4, items[0].Data)
}

func TestRecall(t *testing.T) {
	store := NewStore(nil, nil, nil)
	defer store.Close()

	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "budget talk", Topic: "personal_finance", Relevance: 0.9}))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "weak", Topic: "personal_finance", Relevance: 0.1}))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "general"}))

	topical := store.Recall(Episodic, RecallOptions{Topic: "personal_finance", MinRelevance: 0.3})
	require.Len(t, topical, 1)
	assert.Equal(t, "budget talk", topical[0].Data)

	// unknown topic falls back to the collection
	all := store.Recall(Episodic, RecallOptions{Topic: "unknown", MaxItems: 2})
	require.Len(t, all, 2)
	assert.Equal(t, "general", all[0].Data)

	filtered := store.Recall(Episodic, RecallOptions{Filter: func(i models.MemoryItem) bool { return i.Topic == "" }})
	require.Len(t, filtered, 1)
}

func TestFindRelated(t *testing.T) {
	store := NewStore(nil, nil, nil)
	defer store.Close()

	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "saving for a house deposit", Topic: "personal_finance"}))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: map[string]interface{}{"input": "my dog barks at night"}}))

	related := store.FindRelated("house deposit", []string{"personal_finance"}, DefaultRelatedOptions())
	require.NotEmpty(t, related)
	assert.Equal(t, "saving for a house deposit", related[0].Data)
	assert.InDelta(t, 1.2, related[0].Score, 1e-9)

	dog := store.FindRelated("dog", nil, DefaultRelatedOptions())
	require.Len(t, dog, 1)
	assert.InDelta(t, 1.0, dog[0].Score, 1e-9)

	assert.Empty(t, store.FindRelated("   ", nil, DefaultRelatedOptions()))
}

func TestRecentSentimentAverage(t *testing.T) {
	store := NewStore(nil, nil, nil)
	defer store.Close()

	assert.Zero(t, store.RecentSentimentAverage(3))

	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "a", Sentiment: sentiment(-1)}))
	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "no sentiment"}))
	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "b", Sentiment: sentiment(0.5)}))
	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "c", Sentiment: sentiment(0)}))
	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "d", Sentiment: sentiment(0.1)}))

	assert.InDelta(t, 0.2, store.RecentSentimentAverage(3), 1e-9)
}

func TestPersistRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	blob := backend.Blob("ada")

	store := NewStore(nil, blob, nil)
	store.SetLongTerm("name", "Ada")
	store.SetLongTerm("count", float64(3))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "budget", Topic: "personal_finance", Timestamp: t0, Sentiment: sentiment(-0.25)}))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "resume", Topic: "career_advice", Timestamp: t0.Add(time.Minute), Relevance: 0.5}))
	require.NoError(t, store.Close())

	reloaded := NewStore(nil, blob, nil)
	defer reloaded.Close()
	require.NoError(t, reloaded.Load(context.Background()))

	assert.Equal(t, store.LongTerm(), reloaded.LongTerm())
	assert.ElementsMatch(t, store.Snapshot().TopicMemories, reloaded.Snapshot().TopicMemories)
	assert.Empty(t, reloaded.Episodic(), "episodic log is not persisted")
}

func TestPersistedLayout(t *testing.T) {
	blob := &memBlob{}
	store := NewStore(nil, blob, nil)
	store.SetLongTerm("profile", map[string]interface{}{"industry": "tech"})
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "x", Topic: "pet_care", Timestamp: t0}))
	require.NoError(t, store.Close())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(blob.data, &raw))
	assert.Contains(t, raw, "longTerm")

	var pairs [][]json.RawMessage
	require.NoError(t, json.Unmarshal(raw["topicMemories"], &pairs))
	require.Len(t, pairs, 1)
	require.Len(t, pairs[0], 2)
	assert.JSONEq(t, `"pet_care"`, string(pairs[0][0]))
}

func TestLoadMissingBlob(t *testing.T) {
	store := NewStore(nil, &memBlob{}, nil)
	defer store.Close()
	assert.NoError(t, store.Load(context.Background()))
}

func TestLoadCorruptBlob(t *testing.T) {
	store := NewStore(nil, &memBlob{data: []byte("{not json")}, nil)
	defer store.Close()

	err := store.Load(context.Background())
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "decode", perr.Op)
}

func TestPersistFailureIsLoggedNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t)

	blob := &failingBlob{}
	store := NewStore(nil, blob, nil)
	store.SetLongTerm("k", "v")
	store.Flush()

	v, ok := store.GetLongTerm("k")
	assert.True(t, ok, "memory stays correct in-process")
	assert.Equal(t, "v", v)
	assert.Equal(t, int64(1), store.Stats().PersistErrors)
	assert.Equal(t, int32(1), atomic.LoadInt32(&blob.saves))

	var perr *PersistenceError
	assert.True(t, errors.As(store.Load(context.Background()), &perr))
	require.NoError(t, store.Close())
}

func TestPersistAfterCloseIsNoop(t *testing.T) {
	blob := &memBlob{}
	store := NewStore(nil, blob, nil)
	require.NoError(t, store.Close())

	store.SetLongTerm("k", "v")
	store.Flush()
	assert.Zero(t, blob.saves)
}

func TestDeleteLongTermAndReset(t *testing.T) {
	store := NewStore(nil, nil, nil)
	defer store.Close()

	store.SetLongTerm("k", "v")
	store.DeleteLongTerm("k")
	_, ok := store.GetLongTerm("k")
	assert.False(t, ok)

	require.NoError(t, store.Add(ShortTerm, models.MemoryItem{Data: "x"}))
	store.Reset()
	assert.Empty(t, store.ShortTerm())
}

func TestPeriodicCompactionStopsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewStore(&Config{CompactionInterval: 10 * time.Millisecond, MaxEpisodic: 10}, nil, nil)
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "dup"}))
	require.NoError(t, store.Add(Episodic, models.MemoryItem{Data: "dup"}))

	assert.Eventually(t, func() bool { return len(store.Episodic()) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, store.Close())
}
