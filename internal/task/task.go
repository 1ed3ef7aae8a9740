// Package task manages remote scan tasks across one or more scan-API
// servers: handle construction, the per-process registry and the
// server-wide admin operations.
//
// Every handle is registry-mediated: a Task can only be obtained
// through a Manager, which registers it before returning it. Sub
// protocol calls (option, scan) return the server Envelope unchanged
// and add no validation of their own.
package task

import (
	"context"
	"net/http"
	"time"

	"github.com/allbugisi/scanapi/internal/api"
)

// StatusTerminated is the scan status a server reports once a scan has
// run to completion.
const StatusTerminated = "terminated"

// Task is a handle for one remote scan task bound to one server.
type Task struct {
	id       ID
	endpoint Endpoint
	target   string
	client   *api.Client
}

// ID returns the server-assigned task identifier.
func (t *Task) ID() ID { return t.id }

// Endpoint returns the base URL of the owning server.
func (t *Task) Endpoint() Endpoint { return t.endpoint }

// Target returns the scan target supplied at creation. It is
// informational only and never sent to the server implicitly.
func (t *Task) Target() string { return t.target }

// Delete removes the remote task. The local registry entry is kept,
// callers wanting consistency use Registry.Remove or Manager.List.
func (t *Task) Delete(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "task", "delete", nil)
}

// OptionList lists the task option values.
func (t *Task) OptionList(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "option", "list", nil)
}

// OptionGet fetches the values of the named options,
// e.g. []string{"cookie", "referer"}.
func (t *Task) OptionGet(ctx context.Context, names []string) (api.Envelope, error) {
	return t.send(ctx, http.MethodPost, "option", "get", names)
}

// OptionSet sets option values, e.g. map[string]any{"referer": "https://example.com"}.
func (t *Task) OptionSet(ctx context.Context, options map[string]any) (api.Envelope, error) {
	return t.send(ctx, http.MethodPost, "option", "set", options)
}

// Start launches the scan.
func (t *Task) Start(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodPost, "scan", "start", map[string]any{})
}

// Stop stops the scan.
func (t *Task) Stop(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "scan", "stop", nil)
}

// Kill kills the scan.
func (t *Task) Kill(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "scan", "kill", nil)
}

// Status returns the scan status.
func (t *Task) Status(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "scan", "status", nil)
}

// Data retrieves the scan results.
func (t *Task) Data(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "scan", "data", nil)
}

// Log retrieves the scan log messages.
func (t *Task) Log(ctx context.Context) (api.Envelope, error) {
	return t.send(ctx, http.MethodGet, "scan", "log", nil)
}

// WaitFinished polls Status every interval until the server reports a
// terminated scan, returning the final status Envelope. Any failure
// surfaces immediately, there is no retry. Aborting a scan remotely is
// the caller's job via Stop or Kill, cancelling ctx only ends the wait.
func (t *Task) WaitFinished(ctx context.Context, interval time.Duration) (api.Envelope, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		env, err := t.Status(ctx)
		if err != nil {
			return nil, err
		}
		if status, ok := env.String("status"); ok && status == StatusTerminated {
			return env, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Task) send(ctx context.Context, method, group, action string, body any) (api.Envelope, error) {
	path := "/" + group + "/" + string(t.id) + "/" + action
	return t.client.Send(ctx, method, path, body)
}
