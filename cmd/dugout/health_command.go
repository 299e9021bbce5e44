package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show task counts and queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			health, err := client.health(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, health)
			}

			rows := [][]string{
				{"Total", fmt.Sprintf("%d", health.Total)},
				{"Queued", fmt.Sprintf("%d", health.Queued)},
				{"In Progress", fmt.Sprintf("%d", health.InProgress)},
				{"Completed", fmt.Sprintf("%d", health.Completed)},
				{"Failed", fmt.Sprintf("%d", health.Failed)},
				{"Queue Depth", fmt.Sprintf("%d", health.QueueDepth)},
			}
			out := renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
