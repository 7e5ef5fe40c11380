package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hadesai/hades/internal/memory"
	"github.com/hadesai/hades/internal/topic"
	"go.uber.org/zap"
)

// Sessions creates and tracks agents that share one registry, provider chain
// and storage backend. Each session gets its own memory namespace.
type Sessions struct {
	registry  *topic.Registry
	base      Options
	backend   memory.Backend
	memConfig *memory.Config
	logger    *zap.Logger

	mu     sync.Mutex
	agents map[string]*Agent
	opened int64
}

// NewSessions creates a session manager. base supplies the shared
// collaborators; its ID, Memory and Rand are set per session. backend may be
// nil for in-memory sessions.
func NewSessions(registry *topic.Registry, base Options, backend memory.Backend, memConfig *memory.Config) *Sessions {
	logger := base.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if base.Graph == nil && registry != nil {
		base.Graph = topic.NewGraph(registry)
	}
	return &Sessions{
		registry:  registry,
		base:      base,
		backend:   backend,
		memConfig: memConfig,
		logger:    logger,
		agents:    make(map[string]*Agent),
	}
}

// Create starts a session with a fresh random ID
func (s *Sessions) Create(ctx context.Context) (*Agent, error) {
	return s.Open(ctx, uuid.NewString())
}

// Open returns the session id, creating it and loading its memory if needed
func (s *Sessions) Open(ctx context.Context, id string) (*Agent, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.agents[id]; ok {
		return a, nil
	}

	var blob memory.BlobStore
	if s.backend != nil {
		blob = s.backend.Blob(id)
	}
	store := memory.NewStore(s.memConfig, blob, s.logger)
	if err := store.Load(ctx); err != nil {
		s.logger.Warn("failed to load session memory", zap.String("session", id), zap.Error(err))
	}

	opts := s.base
	opts.ID = id
	opts.Memory = store
	opts.Rand = nil
	if opts.Config != nil && opts.Config.Seed != 0 {
		cfg := *opts.Config
		cfg.Seed += s.opened
		opts.Config = &cfg
	}

	a, err := New(s.registry, opts)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create session %s: %w", id, err)
	}
	s.opened++
	s.agents[id] = a
	s.logger.Debug("session opened", zap.String("session", id))
	return a, nil
}

// Get looks up an open session
func (s *Sessions) Get(id string) (*Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	return a, ok
}

// IDs returns the open session IDs, sorted
func (s *Sessions) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close ends one session
func (s *Sessions) Close(id string) error {
	s.mu.Lock()
	a, ok := s.agents[id]
	delete(s.agents, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	return a.Close()
}

// CloseAll ends every session. The storage backend is left open.
func (s *Sessions) CloseAll() error {
	s.mu.Lock()
	agents := s.agents
	s.agents = make(map[string]*Agent)
	s.mu.Unlock()

	var errs []error
	for _, a := range agents {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
