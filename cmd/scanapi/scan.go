package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbugisi/scanapi/internal/api"
	"github.com/allbugisi/scanapi/internal/model"
	"github.com/allbugisi/scanapi/internal/service"
	"github.com/allbugisi/scanapi/internal/task"
)

var flagWaitInterval time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Drive the scan of a task",
}

func init() {
	scanCmd.AddCommand(scanActionCmd("start", "Launch the scan", (*task.Task).Start))
	scanCmd.AddCommand(scanActionCmd("stop", "Stop the scan", (*task.Task).Stop))
	scanCmd.AddCommand(scanActionCmd("kill", "Kill the scan", (*task.Task).Kill))
	scanCmd.AddCommand(scanActionCmd("status", "Show the scan status", (*task.Task).Status))
	scanCmd.AddCommand(scanActionCmd("data", "Retrieve the scan results", (*task.Task).Data))
	scanCmd.AddCommand(scanActionCmd("log", "Retrieve the scan log messages", (*task.Task).Log))

	scanWaitCmd.Flags().DurationVar(&flagWaitInterval, "interval", 3*time.Second, "status poll interval")
	scanCmd.AddCommand(scanWaitCmd)
}

func scanActionCmd(action, short string, call func(*task.Task, context.Context) (api.Envelope, error)) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, t, err := sessionTask(cmd, args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = s.close(ctx)
			}()

			env, err := call(t, ctx)
			if err != nil {
				return err
			}
			return printEnvelope(env)
		},
	}
}

var scanWaitCmd = &cobra.Command{
	Use:   "wait <task-id>",
	Short: "Block until the scan has terminated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, t, err := sessionTask(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		env, err := t.WaitFinished(ctx, flagWaitInterval)
		if err != nil {
			return err
		}
		return printEnvelope(env)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep reconciling every configured server on a schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		schedule := config.Service.Schedule
		if schedule == nil {
			schedule = &model.TimerSchedule{Duration: model.Duration(time.Minute)}
		}
		monitor, err := service.NewMonitor(ctx, s.manager, s.endpoints(), schedule)
		if err != nil {
			return err
		}
		return monitor.Do(ctx)
	},
}
