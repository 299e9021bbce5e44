package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var restart bool

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show one import task's progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			payload, err := client.getTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if restart {
				payload, err = client.restartTask(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task:     %s\n", payload.ID)
			fmt.Fprintf(out, "Game:     %s\n", formatGame(payload.GameID))
			fmt.Fprintf(out, "Status:   %s\n", colorizeStatus(payload.Status))
			fmt.Fprintf(out, "Progress: %.0f%%\n", payload.Progress*100)
			fmt.Fprintf(out, "Message:  %s\n", payload.Message)
			if payload.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", payload.Error)
			}
			for _, unit := range payload.Units {
				marker := " "
				if unit.Processed {
					marker = "x"
				}
				fmt.Fprintf(out, "  [%s] %s (%s)", marker, unit.BaseName, unit.Kind)
				if unit.Error != "" {
					fmt.Fprintf(out, " error: %s", unit.Error)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&restart, "restart", false, "Re-queue the task before showing it")
	return cmd
}
