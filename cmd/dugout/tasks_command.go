package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var gameID int64
	var all bool
	var status string

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List import tasks (unfinished by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var game *int64
			if cmd.Flags().Changed("game") {
				game = &gameID
			}

			client := newAPIClient(cfg)
			tasks, err := client.listTasks(cmd.Context(), game, all, status)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"tasks": tasks})
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
				return nil
			}
			out := renderTable(
				[]string{"ID", "Game", "Status", "Units", "Message", "Created"},
				buildTaskRows(tasks),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().Int64Var(&gameID, "game", 0, "Only show tasks for this game")
	cmd.Flags().BoolVar(&all, "all", false, "Include completed and failed tasks")
	cmd.Flags().StringVar(&status, "status", "", "Only show tasks in this state (queued, in_progress, completed, failed)")
	return cmd
}
