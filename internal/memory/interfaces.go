package memory

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind selects one of the ordered memory collections
type Kind string

const (
	ShortTerm Kind = "shortTerm"
	Episodic  Kind = "episodic"
)

// ErrBlobNotFound is returned by BlobStore.Load when nothing was saved yet
var ErrBlobNotFound = errors.New("memory blob not found")

// Backend hands out per-namespace blobs from one underlying storage engine
type Backend interface {
	// Blob returns the blob for namespace (one per user/profile)
	Blob(namespace string) BlobStore

	// Close releases the storage engine
	Close() error
}

// BlobStore reads and writes a whole persisted memory blob; no partial updates
type BlobStore interface {
	// Load returns the stored blob or ErrBlobNotFound
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored blob
	Save(ctx context.Context, data []byte) error
}

// Compactor bounds the episodic log
type Compactor interface {
	// Compact runs deduplication followed by archival
	Compact(ctx context.Context) (*CompactionResult, error)

	// Deduplicate removes older episodic entries that repeat a newer one
	Deduplicate(ctx context.Context) (int, error)

	// Archive removes episodic entries older than the cutoff or beyond the size cap
	Archive(ctx context.Context, olderThan time.Duration) (int, error)
}

// CompactionResult contains results from a compaction operation
type CompactionResult struct {
	MemoriesRemoved    int           `json:"memories_removed"`
	DeduplicationCount int           `json:"deduplication_count"`
	ArchivedCount      int           `json:"archived_count"`
	Duration           time.Duration `json:"duration"`
}

// Stats contains memory store statistics
type Stats struct {
	ShortTermCount int       `json:"short_term_count"`
	EpisodicCount  int       `json:"episodic_count"`
	TopicCount     int       `json:"topic_count"`
	LongTermKeys   int       `json:"long_term_keys"`
	LastCompaction time.Time `json:"last_compaction"`
	LastPersisted  time.Time `json:"last_persisted"`
	PersistErrors  int64     `json:"persist_errors"`
}

// PersistenceError wraps a failed load or save. It is logged, never returned from a turn.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("memory persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Config holds memory store configuration
type Config struct {
	ShortTermCapacity int `yaml:"short_term_capacity"`
	MaxEpisodic       int `yaml:"max_episodic"`
	MaxTopicItems     int `yaml:"max_topic_items"`

	// Persistence
	Persistence    bool          `yaml:"persistence"`
	Backend        string        `yaml:"backend"` // file, badger, redis
	Path           string        `yaml:"path"`    // directory for the file backend
	PersistTimeout time.Duration `yaml:"persist_timeout"`

	// BadgerDB configuration
	BadgerPath string `yaml:"badger_path"`

	// Redis configuration
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`

	// Compaction settings
	CompactionInterval time.Duration `yaml:"compaction_interval"`
	RetentionDays      int           `yaml:"retention_days"`
}

// DefaultConfig returns default memory configuration
func DefaultConfig() *Config {
	return &Config{
		ShortTermCapacity:  10,
		MaxEpisodic:        500,
		MaxTopicItems:      100,
		Persistence:        false,
		Backend:            "file",
		Path:               "~/.hades/data",
		PersistTimeout:     5 * time.Second,
		BadgerPath:         "~/.hades/badger",
		RedisURL:           "localhost:6379",
		RedisDB:            0,
		RedisPrefix:        "hades:memory:",
		CompactionInterval: 0,
		RetentionDays:      90,
	}
}

// NewBackend opens the storage engine named by config.Backend
func NewBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Backend {
	case "", "file":
		return NewFileBackend(config.Path)
	case "badger":
		return NewBadgerBackend(config)
	case "redis":
		return NewRedisBackend(config)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", config.Backend)
	}
}
