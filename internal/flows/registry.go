package flows

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrDuplicateFlow is returned when registering a name that is taken.
var ErrDuplicateFlow = errors.New("flow already exists")

// Registry holds flows by name and remembers registration order.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Flow
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Flow)}
}

// Register adds f. Names are unique.
func (r *Registry) Register(f *Flow) error {
	if f == nil {
		return errors.New("nil flow")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[f.Name]; exists {
		return fmt.Errorf("%w: flow with name %q already exists", ErrDuplicateFlow, f.Name)
	}
	r.byKey[f.Name] = f
	r.order = append(r.order, f.Name)
	return nil
}

// RegisterAll registers flows in order, stopping at the first error.
// Flows registered before the error stay registered.
func (r *Registry) RegisterAll(flows []*Flow) error {
	for _, f := range flows {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}

// Unregister removes the named flow and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[name]; !ok {
		return false
	}
	delete(r.byKey, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the named flow, or nil.
func (r *Registry) Get(name string) *Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[name]
}

// Find returns flows whose name or description contains query, ignoring
// case, in registration order.
func (r *Registry) Find(query string) []*Flow {
	q := strings.ToLower(query)
	var out []*Flow
	for _, f := range r.All() {
		if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.Description), q) {
			out = append(out, f)
		}
	}
	return out
}

// All returns every flow in registration order.
func (r *Registry) All() []*Flow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Flow, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	return out
}

// Len returns the number of registered flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Summaries describes every flow for the chat backend.
func (r *Registry) Summaries() []Summary {
	all := r.All()
	out := make([]Summary, len(all))
	for i, f := range all {
		out[i] = f.Summary()
	}
	return out
}
