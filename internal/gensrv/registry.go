package gensrv

import "sync"

// Registry is a concurrent name → mailbox map. It provides location
// transparency: a Connection obtained via Lookup behaves identically to
// one obtained directly from Spawn.
//
// Unlike the teacher's Receptionist (which supports many actors registered
// under one ServiceKey, load-balanced by a Router), Registry holds at most
// one sender per name, matching the spec's explicit last-writer-wins
// register semantics and the Non-goal ruling out broadcast.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]any),
	}
}

// Register inserts sender under name, overwriting any existing entry.
// sender must be a *mailbox[Req, Resp] for some concrete Req, Resp; it is
// stored type-erased and recovered by a checked type assertion in Lookup.
func (r *Registry) Register(name string, sender any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = sender
}

// Unregister removes the entry for name, if any. It is idempotent: there
// is no error if name is absent.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// Exist reports whether name currently has an entry.
func (r *Registry) Exist(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// Lookup returns a Connection for the mailbox registered under name. It is
// a package-level generic function, not a method, because Go methods
// cannot carry their own type parameters.
//
// Lookup returns ErrNotFound if name has no entry, ErrWrongType if the
// stored sender's concrete type does not match (Req, Resp), and otherwise
// a Connection sharing the registered mailbox.
func Lookup[Req, Resp any](r *Registry, name string) (Connection[Req, Resp], error) {
	r.mu.RLock()
	stored, ok := r.entries[name]
	r.mu.RUnlock()

	var zero Connection[Req, Resp]
	if !ok {
		return zero, ErrNotFound
	}

	box, ok := stored.(*mailbox[Req, Resp])
	if !ok {
		return zero, ErrWrongType
	}

	return newConnection(box), nil
}
