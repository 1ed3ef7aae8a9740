package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var optionCmd = &cobra.Command{
	Use:   "option",
	Short: "Inspect and change options of a task",
}

func init() {
	optionCmd.AddCommand(optionListCmd)
	optionCmd.AddCommand(optionGetCmd)
	optionCmd.AddCommand(optionSetCmd)
}

var optionListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List all option values of the task",
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

		env, err := t.OptionList(ctx)
		if err != nil {
			return err
		}
		return printEnvelope(env)
	},
}

var optionGetCmd = &cobra.Command{
	Use:   "get <task-id> <name>...",
	Short: "Get the values of the named options",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, t, err := sessionTask(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		env, err := t.OptionGet(ctx, args[1:])
		if err != nil {
			return err
		}
		return printEnvelope(env)
	},
}

var optionSetCmd = &cobra.Command{
	Use:   "set <task-id> <name>=<value>...",
	Short: "Set option values",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		options := make(map[string]any, len(args)-1)
		for _, arg := range args[1:] {
			name, value, ok := strings.Cut(arg, "=")
			if !ok || name == "" {
				return fmt.Errorf("option %q is not in <name>=<value> form", arg)
			}
			options[name] = value
		}

		s, t, err := sessionTask(cmd, args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = s.close(ctx)
		}()

		env, err := t.OptionSet(ctx, options)
		if err != nil {
			return err
		}
		return printEnvelope(env)
	},
}
