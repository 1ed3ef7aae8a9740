// Package service implements the run mode: a long-lived monitor which
// keeps the registry reconciled against every configured server on a
// schedule and logs the status of live scans.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gocron "github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"github.com/allbugisi/scanapi/internal/model"
	"github.com/allbugisi/scanapi/internal/task"
)

// Monitor periodically reconciles the registry of every endpoint.
// Remote failures are logged, never fatal: the next tick retries the
// whole pass.
type Monitor struct {
	manager   *task.Manager
	endpoints []task.Endpoint
	scheduler gocron.Scheduler
}

// NewMonitor builds a monitor ticking per the given schedule, either a
// cron expression or a fixed duration.
func NewMonitor(ctx context.Context, manager *task.Manager, endpoints []task.Endpoint, cfg *model.TimerSchedule) (*Monitor, error) {
	if cfg == nil {
		return nil, errors.New("service.schedule is nil")
	}

	var job gocron.JobDefinition
	switch {
	case cfg.Cron != "":
		if err := ParseCron(cfg.Cron); err != nil {
			return nil, fmt.Errorf("parsing service.schedule.cron: %w", err)
		}
		job = gocron.CronJob(cfg.Cron, false)
	case cfg.Duration != 0:
		job = gocron.DurationJob(cfg.Duration.AsDuration())
	default:
		return nil, errors.New("both cron and duration are empty")
	}

	m := &Monitor{
		manager:   manager,
		endpoints: endpoints,
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("initializing gocron scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		job,
		gocron.NewTask(func() { m.reconcileAll(ctx) }),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing gocron job: %w", err)
	}
	m.scheduler = scheduler

	return m, nil
}

// Do runs one reconciliation pass immediately, then lets the scheduler
// drive further passes until ctx is cancelled. Returns nil on graceful
// cancellation.
func (m *Monitor) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting the monitor")

	m.scheduler.Start()
	defer func() {
		err := m.scheduler.Shutdown()
		if err != nil {
			slog.ErrorContext(ctx, "shutting down gocron has failed", "error", err)
		}
	}()

	m.reconcileAll(ctx)

	<-ctx.Done()
	return nil
}

func (m *Monitor) reconcileAll(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	for _, endpoint := range m.endpoints {
		g.Go(func() error {
			m.reconcile(ctx, endpoint)
			return nil
		})
	}
	_ = g.Wait() // goroutines do not return an error
}

func (m *Monitor) reconcile(ctx context.Context, endpoint task.Endpoint) {
	all, err := m.manager.List(ctx, endpoint)
	if err != nil {
		slog.ErrorContext(ctx, "reconciliation failed", "endpoint", endpoint, "error", err)
		return
	}

	live := all[endpoint]
	slog.InfoContext(ctx, "reconciled", "endpoint", endpoint, "tasks", len(live))

	for id, t := range live {
		env, err := t.Status(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "status poll failed", "endpoint", endpoint, "task_id", id, "error", err)
			continue
		}
		status, _ := env.String("status")
		slog.InfoContext(ctx, "scan status", "endpoint", endpoint, "task_id", id, "status", status)
	}
}
