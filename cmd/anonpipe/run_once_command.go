package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunOnceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "run-once",
		Aliases: []string{"tick"},
		Short:   "Run a single pipeline tick",
		Long:    "Run one full pipeline pass: advance cooled files, submit fresh batches, reconcile open submissions, retire finished files, and empty the trash. The daemon does this on a schedule; running it by hand is mostly useful after fixing a problem.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRecords()
			if err != nil {
				return err
			}
			defer store.Close()
			pipe, err := ctx.newPipeline(store)
			if err != nil {
				return err
			}
			if err := pipe.RunOnce(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tick complete")
			return nil
		},
	}
}
