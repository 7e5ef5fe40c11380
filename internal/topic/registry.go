package topic

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// LoadError reports a topic that could not be registered. Loading continues without it.
type LoadError struct {
	Name   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "topic load failed"
	if e.Name != "" {
		msg += fmt.Sprintf(" for %q", e.Name)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry is the immutable name→topic mapping. Iteration order is registration order.
type Registry struct {
	order  []*Topic
	byName map[string]*Topic
}

// Get looks up a topic by name
func (r *Registry) Get(name string) (*Topic, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the topics in registration order
func (r *Registry) All() []*Topic {
	out := make([]*Topic, len(r.order))
	copy(out, r.order)
	return out
}

// Names returns topic names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, t := range r.order {
		names[i] = t.Name()
	}
	return names
}

// Len returns the number of registered topics
func (r *Registry) Len() int { return len(r.order) }

// Builder collects definitions and produces a Registry in dependency order
type Builder struct {
	defs   []Definition
	stem   func(string) string
	logger *zap.Logger
}

// NewBuilder creates a builder. stem is applied to keywords and may be nil.
func NewBuilder(stem func(string) string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{stem: stem, logger: logger}
}

// Add queues definitions for registration
func (b *Builder) Add(defs ...Definition) *Builder {
	b.defs = append(b.defs, defs...)
	return b
}

// Build compiles the queued definitions. A topic is registered only after all of its
// dependencies; topics that fail to compile, duplicate an existing name, or whose
// dependencies never resolve are dropped and reported in the returned errors.
func (b *Builder) Build() (*Registry, []error) {
	reg := &Registry{byName: make(map[string]*Topic)}
	var errs []error

	drop := func(err error) {
		b.logger.Warn("dropping topic", zap.Error(err))
		errs = append(errs, err)
	}

	pending := make([]Definition, 0, len(b.defs))
	seen := make(map[string]bool)
	for _, def := range b.defs {
		if seen[def.Name] && def.Name != "" {
			drop(&LoadError{Name: def.Name, Reason: "duplicate topic name"})
			continue
		}
		seen[def.Name] = true
		pending = append(pending, def)
	}

	for changed := true; changed && len(pending) > 0; {
		changed = false
		next := pending[:0]
		for _, def := range pending {
			if !b.resolved(reg, def) {
				next = append(next, def)
				continue
			}
			changed = true
			t, err := Compile(def, b.stem)
			if err != nil {
				drop(err)
				continue
			}
			reg.order = append(reg.order, t)
			reg.byName[t.Name()] = t
			b.logger.Debug("loaded topic", zap.String("topic", t.Name()))
		}
		pending = next
	}

	for _, def := range pending {
		var missing []string
		for _, dep := range def.Dependencies {
			if _, ok := reg.byName[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		drop(&LoadError{
			Name:   def.Name,
			Reason: "unresolved dependencies: " + strings.Join(missing, ", "),
		})
	}

	return reg, errs
}

func (b *Builder) resolved(reg *Registry, def Definition) bool {
	for _, dep := range def.Dependencies {
		if _, ok := reg.byName[dep]; !ok {
			return false
		}
	}
	return true
}

// NewRegistry builds a registry without a logger, for tests and fixed topic sets
func NewRegistry(stem func(string) string, defs ...Definition) (*Registry, []error) {
	return NewBuilder(stem, nil).Add(defs...).Build()
}
