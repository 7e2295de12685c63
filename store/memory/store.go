// Package memory provides a fully in-memory store implementation.
// Safe for concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/tempo"
	"github.com/xraph/tempo/id"
	"github.com/xraph/tempo/job"
	"github.com/xraph/tempo/store"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu sync.RWMutex

	defs  map[string]*job.Definition
	execs []*job.Execution
	byID  map[string]*job.Execution

	closed bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		defs: make(map[string]*job.Definition),
		byID: make(map[string]*job.Execution),
	}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return tempo.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Subsequent operations fail.
func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SaveDefinition inserts or updates a definition by name.
func (m *Store) SaveDefinition(_ context.Context, def *job.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return tempo.ErrStoreClosed
	}
	m.defs[def.Name] = def.Clone()
	return nil
}

// DeleteDefinition removes a definition by name.
func (m *Store) DeleteDefinition(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return tempo.ErrStoreClosed
	}
	delete(m.defs, name)
	return nil
}

// ListDefinitions returns all definitions sorted by name.
func (m *Store) ListDefinitions(_ context.Context) ([]*job.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, tempo.ErrStoreClosed
	}
	out := make([]*job.Definition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out, nil
}

// AppendExecution records one execution attempt.
func (m *Store) AppendExecution(_ context.Context, e *job.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return tempo.ErrStoreClosed
	}
	cp := e.Clone()
	m.execs = append(m.execs, cp)
	m.byID[cp.ID.String()] = cp
	return nil
}

// GetExecution retrieves an execution record by ID.
func (m *Store) GetExecution(_ context.Context, execID id.ExecID) (*job.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, tempo.ErrStoreClosed
	}
	e, ok := m.byID[execID.String()]
	if !ok {
		return nil, tempo.ErrExecutionNotFound
	}
	return e.Clone(), nil
}

// ListExecutions returns records for a job, newest first.
func (m *Store) ListExecutions(_ context.Context, jobName string, limit int) ([]*job.Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, tempo.ErrStoreClosed
	}
	out := make([]*job.Execution, 0, len(m.execs))
	// Records are appended in order; walk backwards for newest first.
	for i := len(m.execs) - 1; i >= 0; i-- {
		e := m.execs[i]
		if jobName != "" && e.JobName != jobName {
			continue
		}
		out = append(out, e.Clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
