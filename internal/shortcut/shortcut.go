// Package shortcut maps global key chords to actions. A Registry is an
// explicit value owned by the application shell; registration returns a
// handle used for removal, so independent components can bind the same
// chord without clobbering each other.
package shortcut

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one binding for removal.
type Handle string

// Registry holds the active bindings.
type Registry struct {
	mu       sync.Mutex
	bindings map[Handle]binding
}

type binding struct {
	chord  string
	action func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Handle]binding)}
}

// Register binds chord (e.g. "ctrl+l") to action and returns the handle
// that removes the binding.
func (r *Registry) Register(chord string, action func()) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := Handle(uuid.NewString())
	r.bindings[h] = binding{chord: chord, action: action}
	return h
}

// Unregister removes the binding for h. Unknown handles are ignored.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, h)
}

// Dispatch fires every action bound to chord and reports whether any fired.
func (r *Registry) Dispatch(chord string) bool {
	r.mu.Lock()
	var actions []func()
	for _, b := range r.bindings {
		if b.chord == chord {
			actions = append(actions, b.action)
		}
	}
	r.mu.Unlock()
	for _, fn := range actions {
		fn()
	}
	return len(actions) > 0
}
