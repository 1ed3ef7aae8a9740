package task_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allbugisi/scanapi/internal/task"
)

// attach builds registered handles without hitting the wire.
func attach(t *testing.T, registry *task.Registry, endpoint task.Endpoint, ids ...task.ID) *task.Manager {
	t.Helper()
	manager := task.NewManager(registry)
	for _, id := range ids {
		_, err := manager.Attach(endpoint, id, "")
		require.NoError(t, err)
	}
	return manager
}

func TestRegistryScoping(t *testing.T) {
	t.Parallel()
	const (
		endpointA = task.Endpoint("http://a.invalid:8775")
		endpointB = task.Endpoint("http://b.invalid:8775")
	)

	registry := task.NewRegistry()
	attach(t, registry, endpointA, "abc123")
	attach(t, registry, endpointB, "abc123")

	a, ok := registry.Get(endpointA, "abc123")
	require.True(t, ok)
	b, ok := registry.Get(endpointB, "abc123")
	require.True(t, ok)
	require.NotSame(t, a, b)

	// removal is composite-keyed, the other server's entry survives
	require.True(t, registry.Remove(endpointA, "abc123"))
	_, ok = registry.Get(endpointA, "abc123")
	require.False(t, ok)
	_, ok = registry.Get(endpointB, "abc123")
	require.True(t, ok)

	require.False(t, registry.Remove(endpointA, "abc123"))
	require.False(t, registry.Remove("http://c.invalid:8775", "abc123"))
}

func TestRegistryByEndpoint(t *testing.T) {
	t.Parallel()
	endpoint := task.Endpoint("http://a.invalid:8775")

	registry := task.NewRegistry()
	_, ok := registry.ByEndpoint(endpoint)
	require.False(t, ok, "unknown endpoint has no entry at all")

	attach(t, registry, endpoint, "abc123", "zzz999")
	byID, ok := registry.ByEndpoint(endpoint)
	require.True(t, ok)
	require.Len(t, byID, 2)

	// returned map is a copy
	delete(byID, "abc123")
	_, ok = registry.Get(endpoint, "abc123")
	require.True(t, ok)
}

func TestRegistryClear(t *testing.T) {
	t.Parallel()
	const (
		endpointA = task.Endpoint("http://a.invalid:8775")
		endpointB = task.Endpoint("http://b.invalid:8775")
	)

	registry := task.NewRegistry()
	attach(t, registry, endpointA, "abc123")
	attach(t, registry, endpointB, "zzz999")

	registry.Clear(endpointA)
	_, ok := registry.ByEndpoint(endpointA)
	require.False(t, ok)
	_, ok = registry.Get(endpointB, "zzz999")
	require.True(t, ok)
}

func TestRegistryOverwrite(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success": true, "taskid": "abc123"}`)
	}))
	t.Cleanup(srv.Close)
	endpoint := task.Endpoint(srv.URL)

	registry := task.NewRegistry()
	manager := task.NewManager(registry)

	first, err := manager.Attach(endpoint, "abc123", "http://old.example.com")
	require.NoError(t, err)
	second, err := manager.New(t.Context(), endpoint, "http://new.example.com")
	require.NoError(t, err)

	got, ok := registry.Get(endpoint, "abc123")
	require.True(t, ok)
	require.Same(t, second, got)
	require.NotSame(t, first, got)
}
