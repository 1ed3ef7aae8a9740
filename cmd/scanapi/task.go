package main

import (
	"github.com/spf13/cobra"

	"github.com/allbugisi/scanapi/internal/task"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Create, list, delete and flush remote scan tasks",
}

func init() {
	taskCmd.AddCommand(taskNewCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskFlushCmd)
}

var taskNewCmd = &cobra.Command{
	Use:   "new <target-url>",
	Short: "Create a new task for the given scan target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		endpoint, err := s.endpoint()
		if err != nil {
			return err
		}
		t, err := s.manager.New(ctx, endpoint, args[0])
		if err != nil {
			return err
		}
		return printJSON(map[string]string{
			"taskid":   string(t.ID()),
			"endpoint": string(t.Endpoint()),
			"target":   t.Target(),
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete one remote task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := newSession(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		t, err := s.lookup(args[0])
		if err != nil {
			return err
		}
		env, err := t.Delete(ctx)
		if err != nil {
			return err
		}
		s.manager.Registry().Remove(t.Endpoint(), t.ID())
		return printEnvelope(env)
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks known locally, reconciled against the server",
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

		endpoint, err := s.endpoint()
		if err != nil {
			return err
		}
		all, err := s.manager.List(ctx, endpoint)
		if err != nil {
			return err
		}

		out := make(map[string]map[string]string, len(all))
		for endpoint, byID := range all {
			tasks := make(map[string]string, len(byID))
			for id, t := range byID {
				tasks[string(id)] = t.Target()
			}
			out[string(endpoint)] = tasks
		}
		return printJSON(out)
	},
}

var taskFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Delete all remote tasks on the server",
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

		endpoint, err := s.endpoint()
		if err != nil {
			return err
		}
		env, err := s.manager.Flush(ctx, endpoint)
		if err != nil {
			return err
		}
		return printEnvelope(env)
	},
}

// used by the option and scan commands
func sessionTask(cmd *cobra.Command, id string) (*session, *task.Task, error) {
	s, err := newSession(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	t, err := s.lookup(id)
	if err != nil {
		_ = s.close(cmd.Context())
		return nil, nil, err
	}
	return s, t, nil
}
