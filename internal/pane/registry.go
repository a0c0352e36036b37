package pane

import (
	"log/slog"
	"sync"
)

// Key addresses one pane. IndicatorID distinguishes the momentum panes a
// single symbol can host concurrently; it is empty for every other kind.
type Key struct {
	Symbol      string
	Kind        Kind
	IndicatorID string
}

type registryEntry struct {
	ctrl *Controller
	refs int
}

// Registry owns pane controllers with explicit reference counting. Mounts
// acquire, unmounts release; the underlying surface is disposed only when
// the last reference goes away. This is what lets Main and Volume panes
// survive modal and route transitions without flicker.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*registryEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[Key]*registryEntry)}
}

// Acquire returns the controller for key, creating it with build on first
// acquisition, and bumps the refcount.
func (r *Registry) Acquire(key Key, build func() *Controller) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		entry = &registryEntry{ctrl: build()}
		r.entries[key] = entry
	}
	entry.refs++
	slog.Debug("pane acquired", "symbol", key.Symbol, "kind", key.Kind.String(), "refs", entry.refs)
	return entry.ctrl
}

// Release drops one reference. At refcount zero the controller is disposed
// and forgotten.
func (r *Registry) Release(key Key) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	entry.refs--
	done := entry.refs <= 0
	if done {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	if done {
		entry.ctrl.Dispose()
		slog.Debug("pane disposed at refcount zero", "symbol", key.Symbol, "kind", key.Kind.String())
	}
}

// Get returns the controller for key without touching the refcount.
func (r *Registry) Get(key Key) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	return entry.ctrl, true
}

// Refs reports the current refcount for key.
func (r *Registry) Refs(key Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[key]; ok {
		return entry.refs
	}
	return 0
}

// Keys lists every registered pane key.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	return out
}
