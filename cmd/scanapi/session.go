package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/allbugisi/scanapi/internal/api"
	"github.com/allbugisi/scanapi/internal/store"
	"github.com/allbugisi/scanapi/internal/task"
)

// session wires registry, manager and the sqlite snapshot together for
// the duration of one CLI command. Handles persisted by previous
// invocations are rehydrated before the command runs and the mutated
// registry is written back in close.
type session struct {
	db      *sql.DB
	manager *task.Manager
}

func newSession(ctx context.Context) (*session, error) {
	dbPath := config.Service.Store
	if dbPath == "" {
		dbPath = filepath.Join(userConfigPath, "scanapi.db")
		if err := os.MkdirAll(userConfigPath, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", userConfigPath, err)
		}
	}

	db, err := store.InitDB(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening task store %s: %w", dbPath, err)
	}

	manager := task.NewManager(task.NewRegistry())
	rows, err := store.Load(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("loading task store: %w", err)
	}
	for _, row := range rows {
		_, err := manager.Attach(task.Endpoint(row.Endpoint), task.ID(row.TaskID), row.Target)
		if err != nil {
			slog.WarnContext(ctx, "skipping stored task with a broken endpoint",
				"endpoint", row.Endpoint, "task_id", row.TaskID, "error", err)
		}
	}

	return &session{db: db, manager: manager}, nil
}

// endpoint resolves the server the command addresses: the --server flag
// (a configured name or a raw URL), falling back to the first
// configured server.
func (s *session) endpoint() (task.Endpoint, error) {
	if flagServer != "" {
		for _, srv := range config.Servers {
			if srv.Name == flagServer {
				return task.Endpoint(srv.URL.String()), nil
			}
		}
		return task.Endpoint(flagServer), nil
	}
	if len(config.Servers) > 0 {
		return task.Endpoint(config.Servers[0].URL.String()), nil
	}
	return "", fmt.Errorf("no server selected: pass --server or add servers to %s", configPath)
}

// endpoints returns every server the config knows about.
func (s *session) endpoints() []task.Endpoint {
	out := make([]task.Endpoint, 0, len(config.Servers))
	for _, srv := range config.Servers {
		out = append(out, task.Endpoint(srv.URL.String()))
	}
	return out
}

// lookup finds a registered handle at (selected endpoint, id).
func (s *session) lookup(id string) (*task.Task, error) {
	endpoint, err := s.endpoint()
	if err != nil {
		return nil, err
	}
	t, ok := s.manager.Registry().Get(endpoint, task.ID(id))
	if !ok {
		return nil, fmt.Errorf("task %q is not known on %s, try `scanapi task list`", id, endpoint)
	}
	return t, nil
}

// close persists the registry snapshot and releases the store.
func (s *session) close(ctx context.Context) error {
	var rows []store.Row
	for endpoint, byID := range s.manager.Registry().Snapshot() {
		for id, t := range byID {
			rows = append(rows, store.Row{
				Endpoint: string(endpoint),
				TaskID:   string(id),
				Target:   t.Target(),
			})
		}
	}
	err := store.Save(ctx, s.db, rows)
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func printEnvelope(env api.Envelope) error {
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
