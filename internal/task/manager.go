package task

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/allbugisi/scanapi/internal/api"
)

// Manager owns the registry and the per-endpoint API clients and
// implements task creation plus the server-wide admin operations.
type Manager struct {
	registry *Registry
	httpc    *http.Client

	mu      sync.Mutex
	clients map[Endpoint]*api.Client
}

// NewManager wires a manager around an existing registry.
func NewManager(registry *Registry) *Manager {
	return &Manager{
		registry: registry,
		clients:  make(map[Endpoint]*api.Client),
	}
}

// WithHTTPClient makes every per-endpoint client share the given
// transport. For timeouts, TLS and tests.
func (m *Manager) WithHTTPClient(httpc *http.Client) *Manager {
	m.httpc = httpc
	return m
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// New creates a remote task on the endpoint and returns a registered
// handle for it. targetURL is kept on the handle for the caller's
// bookkeeping only.
func (m *Manager) New(ctx context.Context, endpoint Endpoint, targetURL string) (*Task, error) {
	cl, err := m.client(endpoint)
	if err != nil {
		return nil, err
	}

	env, err := cl.Send(ctx, http.MethodGet, "/task/new", nil)
	if err != nil {
		return nil, err
	}
	id, ok := env.String("taskid")
	if !ok {
		return nil, &api.MissingFieldError{Field: "taskid"}
	}

	return m.attach(cl, endpoint, ID(id), targetURL), nil
}

// Attach registers a handle for a task which already exists remotely,
// e.g. one rehydrated from a registry snapshot. No request is made.
func (m *Manager) Attach(endpoint Endpoint, id ID, targetURL string) (*Task, error) {
	cl, err := m.client(endpoint)
	if err != nil {
		return nil, err
	}
	return m.attach(cl, endpoint, id, targetURL), nil
}

// List pulls the authoritative task list of the endpoint and reconciles
// the registry against it: every locally known (endpoint, id) pair the
// server no longer reports is removed. Returns a snapshot of the whole
// mutated registry, not just the queried endpoint.
//
// When the registry has no entry for the endpoint at all, the pass is
// skipped and an empty mapping is returned.
func (m *Manager) List(ctx context.Context, endpoint Endpoint) (map[Endpoint]map[ID]*Task, error) {
	cl, err := m.client(endpoint)
	if err != nil {
		return nil, err
	}

	env, err := cl.Send(ctx, http.MethodGet, "/admin/list", nil)
	if err != nil {
		return nil, err
	}
	active, ok := env.Map("tasks")
	if !ok {
		return nil, &api.MissingFieldError{Field: "tasks"}
	}

	local, ok := m.registry.ByEndpoint(endpoint)
	if !ok {
		return map[Endpoint]map[ID]*Task{}, nil
	}
	for id := range local {
		if _, live := active[string(id)]; !live {
			m.registry.Remove(endpoint, id)
			slog.DebugContext(ctx, "pruned stale task", "endpoint", endpoint, "task_id", id)
		}
	}

	return m.registry.Snapshot(), nil
}

// Flush deletes all remote tasks of the endpoint and drops the local
// entries tracked for it, since those tasks no longer exist. Returns
// the server Envelope, which callers usually ignore.
func (m *Manager) Flush(ctx context.Context, endpoint Endpoint) (api.Envelope, error) {
	cl, err := m.client(endpoint)
	if err != nil {
		return nil, err
	}

	env, err := cl.Send(ctx, http.MethodGet, "/admin/flush", nil)
	if err != nil {
		return nil, err
	}
	m.registry.Clear(endpoint)
	return env, nil
}

func (m *Manager) attach(cl *api.Client, endpoint Endpoint, id ID, targetURL string) *Task {
	t := &Task{
		id:       id,
		endpoint: endpoint,
		target:   targetURL,
		client:   cl,
	}
	m.registry.Register(t)
	return t
}

func (m *Manager) client(endpoint Endpoint) (*api.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cl, ok := m.clients[endpoint]; ok {
		return cl, nil
	}
	cl, err := api.NewClient(string(endpoint))
	if err != nil {
		return nil, err
	}
	if m.httpc != nil {
		cl = cl.WithHTTPClient(m.httpc)
	}
	m.clients[endpoint] = cl
	return cl, nil
}
