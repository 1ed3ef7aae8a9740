package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allbugisi/scanapi/internal/model"
	"github.com/allbugisi/scanapi/internal/service"
	"github.com/allbugisi/scanapi/internal/task"
)

// scanServer mocks the admin and status endpoints of one scan-API server.
type scanServer struct {
	mu        sync.Mutex
	listCalls int
	tasks     map[string]string // taskid -> status
}

func (s *scanServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/list", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.listCalls++
		tasks := make(map[string]string, len(s.tasks))
		for id, status := range s.tasks {
			tasks[id] = status
		}
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "tasks": tasks})
	})
	mux.HandleFunc("GET /scan/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.tasks[r.PathValue("id")]
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "status": status})
	})
	return mux
}

func (s *scanServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func TestMonitor(t *testing.T) {
	t.Parallel()
	mock := &scanServer{tasks: map[string]string{"abc123": "running"}}
	srv := httptest.NewServer(mock.handler())
	t.Cleanup(srv.Close)
	endpoint := task.Endpoint(srv.URL)

	registry := task.NewRegistry()
	manager := task.NewManager(registry)
	_, err := manager.Attach(endpoint, "abc123", "http://example.com")
	require.NoError(t, err)
	_, err = manager.Attach(endpoint, "zzz999", "http://example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	monitor, err := service.NewMonitor(ctx, manager, []task.Endpoint{endpoint}, &model.TimerSchedule{
		Duration: model.Duration(20 * time.Millisecond),
	})
	require.NoError(t, err)

	var g sync.WaitGroup
	g.Add(1)
	go func() {
		defer g.Done()
		err := monitor.Do(ctx)
		require.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return mock.calls() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	g.Wait()

	// the stale task was pruned by the reconciliation passes
	_, ok := registry.Get(endpoint, "zzz999")
	require.False(t, ok)
	_, ok = registry.Get(endpoint, "abc123")
	require.True(t, ok)
}

func TestNewMonitorSchedule(t *testing.T) {
	t.Parallel()
	manager := task.NewManager(task.NewRegistry())

	cases := []struct {
		scenario string
		given    *model.TimerSchedule
		wantErr  string
	}{
		{"nil", nil, "service.schedule is nil"},
		{"empty", &model.TimerSchedule{}, "both cron and duration are empty"},
		{"bad cron", &model.TimerSchedule{Cron: "* * * *"}, "parsing service.schedule.cron"},
		{"cron", &model.TimerSchedule{Cron: "*/5 * * * *"}, ""},
		{"duration", &model.TimerSchedule{Duration: model.Duration(time.Minute)}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.scenario, func(t *testing.T) {
			t.Parallel()
			_, err := service.NewMonitor(t.Context(), manager, nil, tc.given)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
