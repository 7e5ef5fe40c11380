package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hadesai/hades/internal/models"
	"go.uber.org/zap"
)

// Snapshot is the persisted form of a store
type Snapshot struct {
	LongTerm      map[string]interface{} `json:"longTerm"`
	TopicMemories []TopicMemories        `json:"topicMemories"`
}

// TopicMemories holds the memories of one topic, newest first.
// It serializes as a [topicName, [items...]] pair.
type TopicMemories struct {
	Topic string
	Items []models.MemoryItem
}

// MarshalJSON encodes the pair form
func (t TopicMemories) MarshalJSON() ([]byte, error) {
	items := t.Items
	if items == nil {
		items = []models.MemoryItem{}
	}
	return json.Marshal([]interface{}{t.Topic, items})
}

// UnmarshalJSON decodes the pair form
func (t *TopicMemories) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("topic memories entry has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.Topic); err != nil {
		return fmt.Errorf("failed to decode topic name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.Items); err != nil {
		return fmt.Errorf("failed to decode topic items: %w", err)
	}
	return nil
}

// RecallOptions filters Recall results
type RecallOptions struct {
	Topic        string                       // read the topic's memories instead of the collection
	MinRelevance float64                      // applies to topic memories
	MaxItems     int                          // default 5
	Filter       func(models.MemoryItem) bool // optional
}

// RelatedOptions bounds FindRelated results
type RelatedOptions struct {
	MinRelevance float64
	MaxItems     int
}

// DefaultRelatedOptions returns the default related-memory search bounds
func DefaultRelatedOptions() RelatedOptions {
	return RelatedOptions{MinRelevance: 0.4, MaxItems: 3}
}

// ScoredItem is a memory with its relatedness score
type ScoredItem struct {
	models.MemoryItem
	Score float64 `json:"score"`
}

// Store owns the short-term ring, episodic log, topic memories and long-term map of one session
type Store struct {
	config    *Config
	blob      BlobStore
	logger    *zap.Logger
	compactor *MemoryCompactor

	mu         sync.RWMutex
	shortTerm  []models.MemoryItem
	episodic   []models.MemoryItem
	longTerm   map[string]interface{}
	topics     map[string][]models.MemoryItem
	topicOrder []string
	stats      Stats
	version    uint64
	closed     bool

	writeMu sync.Mutex
	written uint64

	wg        sync.WaitGroup
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewStore creates a memory store. blob may be nil to disable persistence.
func NewStore(config *Config, blob BlobStore, logger *zap.Logger) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		config:   config,
		blob:     blob,
		logger:   logger,
		longTerm: make(map[string]interface{}),
		topics:   make(map[string][]models.MemoryItem),
		stopCh:   make(chan struct{}),
	}
	s.compactor = NewMemoryCompactor(s, config)

	if config.CompactionInterval > 0 {
		s.wg.Add(1)
		go s.runPeriodicCompaction()
	}

	return s
}

func (s *Store) shortTermCapacity() int {
	if s.config.ShortTermCapacity <= 0 {
		return 10
	}
	return s.config.ShortTermCapacity
}

// Add stores item in the given collection, and in its topic's memories when Topic is set
func (s *Store) Add(kind Kind, item models.MemoryItem) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}
	if item.Relevance == 0 {
		item.Relevance = 1.0
	}

	s.mu.Lock()
	switch kind {
	case ShortTerm:
		s.shortTerm = prepend(s.shortTerm, item, s.shortTermCapacity())
	case Episodic:
		s.episodic = prepend(s.episodic, item, 0)
		s.compactor.trimLocked()
	default:
		s.mu.Unlock()
		return fmt.Errorf("invalid memory kind %q", kind)
	}

	topicChanged := false
	if item.Topic != "" {
		if _, ok := s.topics[item.Topic]; !ok {
			s.topicOrder = append(s.topicOrder, item.Topic)
		}
		s.topics[item.Topic] = prepend(s.topics[item.Topic], item, s.config.MaxTopicItems)
		topicChanged = true
	}
	s.mu.Unlock()

	if topicChanged {
		s.Persist()
	}
	return nil
}

func prepend(items []models.MemoryItem, item models.MemoryItem, limit int) []models.MemoryItem {
	items = append(items, models.MemoryItem{})
	copy(items[1:], items)
	items[0] = item
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// SetLongTerm stores a long-term value and schedules persistence
func (s *Store) SetLongTerm(key string, value interface{}) {
	s.mu.Lock()
	s.longTerm[key] = value
	s.mu.Unlock()
	s.Persist()
}

// GetLongTerm returns a long-term value
func (s *Store) GetLongTerm(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.longTerm[key]
	return v, ok
}

// DeleteLongTerm removes a long-term value
func (s *Store) DeleteLongTerm(key string) {
	s.mu.Lock()
	_, ok := s.longTerm[key]
	delete(s.longTerm, key)
	s.mu.Unlock()
	if ok {
		s.Persist()
	}
}

// LongTerm returns a copy of the long-term map
func (s *Store) LongTerm() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.longTerm))
	for k, v := range s.longTerm {
		out[k] = v
	}
	return out
}

// ShortTerm returns the short-term items, newest first
func (s *Store) ShortTerm() []models.MemoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MemoryItem(nil), s.shortTerm...)
}

// Episodic returns the episodic log, newest first
func (s *Store) Episodic() []models.MemoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MemoryItem(nil), s.episodic...)
}

// TopicMemories returns the memories recorded for topic, newest first
func (s *Store) TopicMemories(topic string) []models.MemoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MemoryItem(nil), s.topics[topic]...)
}

// Recall returns up to MaxItems items of kind, or of opts.Topic when that topic has memories
func (s *Store) Recall(kind Kind, opts RecallOptions) []models.MemoryItem {
	limit := opts.MaxItems
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var src []models.MemoryItem
	minRelevance := 0.0
	if items, ok := s.topics[opts.Topic]; ok && opts.Topic != "" {
		src = items
		minRelevance = opts.MinRelevance
	} else {
		switch kind {
		case ShortTerm:
			src = s.shortTerm
		case Episodic:
			src = s.episodic
		}
	}

	var out []models.MemoryItem
	for _, item := range src {
		if len(out) >= limit {
			break
		}
		if item.Relevance < minRelevance {
			continue
		}
		if opts.Filter != nil && !opts.Filter(item) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// FindRelated scores topic and episodic memories by token overlap with query,
// weighted by relevance. Memories of the given topics are boosted by 1.2.
func (s *Store) FindRelated(query string, topics []string, opts RelatedOptions) []ScoredItem {
	if opts.MaxItems <= 0 {
		opts.MaxItems = 3
	}
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return nil
	}

	s.mu.RLock()
	type candidate struct {
		item     models.MemoryItem
		combined float64
	}
	var candidates []candidate
	for _, topic := range topics {
		for _, item := range s.topics[topic] {
			candidates = append(candidates, candidate{item, item.Relevance * 1.2})
		}
	}
	for _, item := range s.episodic {
		rel := item.Relevance
		if rel == 0 {
			rel = 0.8
		}
		candidates = append(candidates, candidate{item, rel})
	}
	s.mu.RUnlock()

	var scored []ScoredItem
	for _, c := range candidates {
		tokens := tokenSet(itemText(c.item))
		overlap := 0
		for t := range queryTokens {
			if tokens[t] {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(queryTokens)) * c.combined
		if score >= opts.MinRelevance && score > 0 {
			scored = append(scored, ScoredItem{MemoryItem: c.item, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > opts.MaxItems {
		scored = scored[:opts.MaxItems]
	}
	return scored
}

func itemText(item models.MemoryItem) string {
	if s, ok := item.Data.(string); ok {
		return s
	}
	data, err := json.Marshal(item.Data)
	if err != nil {
		return ""
	}
	return string(data)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[f] = true
	}
	return set
}

// RecentSentimentAverage averages the sentiment of the n most recent short-term items that carry one
func (s *Store) RecentSentimentAverage(n int) float64 {
	items := s.Recall(ShortTerm, RecallOptions{
		MaxItems: n,
		Filter:   func(item models.MemoryItem) bool { return item.Sentiment != nil },
	})
	if len(items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range items {
		total += *item.Sentiment
	}
	return total / float64(len(items))
}

// Reset clears the short-term ring
func (s *Store) Reset() {
	s.mu.Lock()
	s.shortTerm = nil
	s.mu.Unlock()
}

// Stats returns collection sizes and persistence bookkeeping
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.ShortTermCount = len(s.shortTerm)
	st.EpisodicCount = len(s.episodic)
	st.TopicCount = len(s.topics)
	st.LongTermKeys = len(s.longTerm)
	return st
}

// Compactor returns the store's episodic compactor
func (s *Store) Compactor() *MemoryCompactor { return s.compactor }

// Snapshot returns a copy of the persisted collections
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		LongTerm:      make(map[string]interface{}, len(s.longTerm)),
		TopicMemories: make([]TopicMemories, 0, len(s.topicOrder)),
	}
	for k, v := range s.longTerm {
		snap.LongTerm[k] = v
	}
	for _, topic := range s.topicOrder {
		snap.TopicMemories = append(snap.TopicMemories, TopicMemories{
			Topic: topic,
			Items: append([]models.MemoryItem(nil), s.topics[topic]...),
		})
	}
	return snap
}

// Restore replaces the long-term map and topic memories with snap
func (s *Store) Restore(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.longTerm = make(map[string]interface{}, len(snap.LongTerm))
	for k, v := range snap.LongTerm {
		s.longTerm[k] = v
	}
	s.topics = make(map[string][]models.MemoryItem, len(snap.TopicMemories))
	s.topicOrder = s.topicOrder[:0]
	for _, tm := range snap.TopicMemories {
		if _, ok := s.topics[tm.Topic]; !ok {
			s.topicOrder = append(s.topicOrder, tm.Topic)
		}
		s.topics[tm.Topic] = append([]models.MemoryItem(nil), tm.Items...)
	}
}

// Load reads the persisted blob into the store. A missing blob is not an error.
func (s *Store) Load(ctx context.Context) error {
	if s.blob == nil {
		return nil
	}

	data, err := s.blob.Load(ctx)
	if errors.Is(err, ErrBlobNotFound) {
		return nil
	}
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &PersistenceError{Op: "decode", Err: err}
	}
	s.Restore(&snap)
	return nil
}

// Persist snapshots the store and writes it in the background. Failures are logged.
func (s *Store) Persist() {
	if s.blob == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.version++
	version := s.version
	snap := s.snapshotLocked()
	s.wg.Add(1)
	s.mu.Unlock()

	go s.write(version, snap)
}

func (s *Store) write(version uint64, snap *Snapshot) {
	defer s.wg.Done()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// A newer snapshot already landed.
	if version <= s.written {
		return
	}

	err := s.save(snap)
	s.mu.Lock()
	if err != nil {
		s.stats.PersistErrors++
	} else {
		s.stats.LastPersisted = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("memory persistence failed", zap.Error(err))
		return
	}
	s.written = version
}

func (s *Store) save(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return &PersistenceError{Op: "encode", Err: err}
	}

	timeout := s.config.PersistTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.blob.Save(ctx, data); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Flush waits for in-flight background writes
func (s *Store) Flush() {
	s.wg.Wait()
}

// Close stops background work and waits for pending writes. The blob's backend is not closed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stopCh)
	})
	s.wg.Wait()
	return nil
}

// runPeriodicCompaction runs compaction at configured intervals
func (s *Store) runPeriodicCompaction() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CompactionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			result, err := s.compactor.Compact(ctx)
			cancel()
			if err != nil {
				s.logger.Warn("memory compaction failed", zap.Error(err))
				continue
			}
			s.logger.Debug("memory compacted",
				zap.Int("removed", result.MemoriesRemoved),
				zap.Duration("duration", result.Duration))
		case <-s.stopCh:
			return
		}
	}
}
