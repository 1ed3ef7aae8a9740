package task

import "sync"

// Endpoint is the base URL of an owning scan-API server. Task ids are
// unique only within an endpoint's namespace, never globally, so both
// values together form the registry key.
type Endpoint string

// ID is an opaque task identifier assigned by the server at creation.
type ID string

// Registry is the local view of which tasks exist per server. It is an
// owned, injectable instance, safe for concurrent callers.
//
// Entries appear whenever a handle is constructed and disappear only on
// explicit removal or a reconciliation pass against the server's
// authoritative task list (see Manager.List).
type Registry struct {
	mu    sync.RWMutex
	tasks map[Endpoint]map[ID]*Task
}

func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[Endpoint]map[ID]*Task),
	}
}

// Register inserts or overwrites the handle at (endpoint, id).
func (r *Registry) Register(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.tasks[t.endpoint]
	if !ok {
		byID = make(map[ID]*Task)
		r.tasks[t.endpoint] = byID
	}
	byID[t.id] = t
}

// Get returns the handle registered at (endpoint, id).
func (r *Registry) Get(endpoint Endpoint, id ID) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[endpoint][id]
	return t, ok
}

// Remove deletes the handle at (endpoint, id) and reports whether it
// was present. Removal is keyed by the composite, a colliding id under
// a different endpoint is never touched.
func (r *Registry) Remove(endpoint Endpoint, id ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.tasks[endpoint]
	if !ok {
		return false
	}
	if _, ok := byID[id]; !ok {
		return false
	}
	delete(byID, id)
	return true
}

// Clear drops every entry tracked for the endpoint, including the
// endpoint key itself.
func (r *Registry) Clear(endpoint Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, endpoint)
}

// ByEndpoint returns a copy of the tasks known for the endpoint. ok is
// false when the registry has no entry for the endpoint at all, which
// is distinct from an empty one.
func (r *Registry) ByEndpoint(endpoint Endpoint) (map[ID]*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID, ok := r.tasks[endpoint]
	if !ok {
		return nil, false
	}
	cp := make(map[ID]*Task, len(byID))
	for id, t := range byID {
		cp[id] = t
	}
	return cp, true
}

// Snapshot returns a copy of the whole registry.
func (r *Registry) Snapshot() map[Endpoint]map[ID]*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[Endpoint]map[ID]*Task, len(r.tasks))
	for endpoint, byID := range r.tasks {
		inner := make(map[ID]*Task, len(byID))
		for id, t := range byID {
			inner[id] = t
		}
		cp[endpoint] = inner
	}
	return cp
}
