// Package actions maps binding identifiers to their press and release
// handlers. The registry is built once at startup and injected into
// whatever owns hotkey dispatch; there is no global dispatch table.
package actions

import (
	"log/slog"
	"sync"
)

// Handler reacts to a binding being pressed and released. For toggle-style
// bindings the release handler is typically a no-op.
type Handler interface {
	Press(bindingID string)
	Release(bindingID string)
}

// Funcs adapts plain functions to Handler. Nil fields are no-ops.
type Funcs struct {
	OnPress   func(bindingID string)
	OnRelease func(bindingID string)
}

func (f Funcs) Press(id string) {
	if f.OnPress != nil {
		f.OnPress(id)
	}
}

func (f Funcs) Release(id string) {
	if f.OnRelease != nil {
		f.OnRelease(id)
	}
}

// Registry dispatches binding events to handlers in O(1) by identifier.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register installs a handler for a binding, replacing any previous one.
func (r *Registry) Register(bindingID string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[bindingID] = h
}

// Unregister removes a binding's handler.
func (r *Registry) Unregister(bindingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, bindingID)
}

// Press dispatches a press event; unknown bindings are logged and dropped.
func (r *Registry) Press(bindingID string) bool {
	h, ok := r.lookup(bindingID)
	if !ok {
		slog.Debug("press for unregistered binding", "binding", bindingID)
		return false
	}
	h.Press(bindingID)
	return true
}

// Release dispatches a release event.
func (r *Registry) Release(bindingID string) bool {
	h, ok := r.lookup(bindingID)
	if !ok {
		return false
	}
	h.Release(bindingID)
	return true
}

// IDs returns the registered binding identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) lookup(bindingID string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[bindingID]
	return h, ok
}
