package memory

import (
	"context"
	"encoding/json"
	"time"
)

// MemoryCompactor implements Compactor over a store's episodic log
type MemoryCompactor struct {
	store  *Store
	config *Config
}

// NewMemoryCompactor creates a new compactor instance
func NewMemoryCompactor(store *Store, config *Config) *MemoryCompactor {
	return &MemoryCompactor{
		store:  store,
		config: config,
	}
}

// Compact performs full memory compaction
func (c *MemoryCompactor) Compact(ctx context.Context) (*CompactionResult, error) {
	start := time.Now()
	result := &CompactionResult{}

	dedupCount, err := c.Deduplicate(ctx)
	if err != nil {
		return nil, err
	}
	result.DeduplicationCount = dedupCount

	archiveCount, err := c.Archive(ctx, time.Duration(c.config.RetentionDays)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	result.ArchivedCount = archiveCount
	result.MemoriesRemoved = dedupCount + archiveCount

	c.store.mu.Lock()
	c.store.stats.LastCompaction = time.Now()
	c.store.mu.Unlock()

	result.Duration = time.Since(start)
	return result, nil
}

// Deduplicate keeps only the newest of episodic entries with identical topic and data
func (c *MemoryCompactor) Deduplicate(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	seen := make(map[string]bool, len(c.store.episodic))
	kept := c.store.episodic[:0]
	removed := 0
	for _, item := range c.store.episodic {
		data, err := json.Marshal(item.Data)
		if err != nil {
			kept = append(kept, item)
			continue
		}
		key := item.Topic + "\x00" + string(data)
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, item)
	}
	c.store.episodic = kept
	return removed, nil
}

// Archive drops episodic entries older than olderThan (when positive) and
// anything beyond MaxEpisodic, oldest first
func (c *MemoryCompactor) Archive(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	before := len(c.store.episodic)
	if olderThan > 0 {
		cutoff := time.Now().Add(-olderThan)
		kept := c.store.episodic[:0]
		for _, item := range c.store.episodic {
			if !item.Timestamp.Before(cutoff) {
				kept = append(kept, item)
			}
		}
		c.store.episodic = kept
	}
	c.trimLocked()
	return before - len(c.store.episodic), nil
}

// trimLocked enforces MaxEpisodic; the store lock must be held
func (c *MemoryCompactor) trimLocked() {
	if c.config.MaxEpisodic > 0 && len(c.store.episodic) > c.config.MaxEpisodic {
		c.store.episodic = c.store.episodic[:c.config.MaxEpisodic]
	}
}
