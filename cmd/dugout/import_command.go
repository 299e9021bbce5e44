package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dugout/internal/importer"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var gameID int64

	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Enqueue a directory of media files for import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			files, err := importer.ScanDirectory(args[0])
			if err != nil {
				return err
			}

			var game *int64
			if cmd.Flags().Changed("game") {
				game = &gameID
			}

			client := newAPIClient(cfg)
			task, err := client.enqueue(cmd.Context(), game, files)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s enqueued with %d units\n", task.ID, len(task.Units))
			return nil
		},
	}

	cmd.Flags().Int64Var(&gameID, "game", 0, "Game the media belongs to")
	return cmd
}
