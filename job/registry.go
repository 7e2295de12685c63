package job

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// HandlerFunc is a type-erased work function. It receives the raw payload
// and returns an opaque result. It must honor ctx cancellation.
type HandlerFunc func(ctx context.Context, payload []byte) (Result, error)

// TypedDefinition pairs a Definition with a typed handler function.
// T is the payload type (must be JSON-serializable).
type TypedDefinition[T any] struct {
	// Def configures scheduling, retries, and concurrency.
	Def *Definition

	// Handler processes the decoded payload.
	Handler func(ctx context.Context, payload T) (any, error)
}

// NewTypedDefinition creates a typed job definition.
func NewTypedDefinition[T any](name string, handler func(ctx context.Context, payload T) (any, error), opts ...Option) *TypedDefinition[T] {
	return &TypedDefinition[T]{
		Def:     NewDefinition(name, opts...),
		Handler: handler,
	}
}

// Erase converts the typed handler to a HandlerFunc by closing over JSON
// unmarshal + the typed handler.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Erase[T any](td *TypedDefinition[T]) HandlerFunc {
	return func(ctx context.Context, payload []byte) (Result, error) {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return Result{}, fmt.Errorf("unmarshal payload for job %q: %w", td.Def.Name, err)
			}
		}
		v, err := td.Handler(ctx, t)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v}, nil
	}
}

// Registry maps job names to type-erased handler functions.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

// Register stores the handler for a job name, replacing any previous one.
func (r *Registry) Register(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Unregister removes the handler for a job name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Get returns the handler for the given job name.
// Returns false if no handler is registered.
func (r *Registry) Get(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns all registered job names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
