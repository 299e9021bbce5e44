package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepNames = []string{"restarter", "content-types", "alternates", "temp-files", "orphans"}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "sweep <name>",
		Short:     "Run one maintenance sweep immediately",
		Long:      "Run one maintenance sweep immediately. Names: restarter, content-types, alternates, temp-files, orphans.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: sweepNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			if err := client.runSweep(cmd.Context(), args[0]); err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]string{"sweep": args[0], "result": "ok"})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sweep %s finished\n", args[0])
			return nil
		},
	}
}
