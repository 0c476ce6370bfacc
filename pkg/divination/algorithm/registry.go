package algorithm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAdapterNotFound is returned by Get for an unknown algorithm id.
// It is user-visible as a routing error.
var ErrAdapterNotFound = errors.New("algorithm not found")

// NotFoundError carries the unresolved id alongside ErrAdapterNotFound.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("algorithm %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrAdapterNotFound }

// ExecutionError wraps an internal fault of an adapter run. The
// deterministic stages have no legitimate failure mode on valid
// inputs, so this always indicates a defect and is never swallowed.
type ExecutionError struct {
	ID  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("algorithm %q execution failed: %v", e.ID, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Registry is the process-wide adapter lookup table. Populated once at
// startup, read-mostly afterwards, injected rather than global.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter. A duplicate id is a startup defect.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[a.ID()]; exists {
		return fmt.Errorf("algorithm %q already registered", a.ID())
	}
	r.adapters[a.ID()] = a
	return nil
}

// Get resolves an adapter by id.
func (r *Registry) Get(id string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return a, nil
}

// List returns the descriptions of all registered adapters, ordered by id.
func (r *Registry) List() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Description, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a.Describe())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
