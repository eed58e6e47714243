package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"anonpipe/internal/records"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show file counts per stage and stream plus open submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openRecords()
			if err != nil {
				return err
			}
			defer store.Close()
			pipe, err := ctx.newPipeline(store)
			if err != nil {
				return err
			}

			headers := []string{"Stage"}
			aligns := []columnAlignment{alignLeft}
			for _, stream := range cfg.Streams {
				headers = append(headers, stream.Name)
				aligns = append(aligns, alignRight)
			}

			var rows [][]string
			for _, stage := range pipe.Stages() {
				row := []string{stage.Name}
				for _, stream := range cfg.Streams {
					files, err := stage.Files(stream.Name)
					if err != nil {
						return err
					}
					row = append(row, strconv.Itoa(len(files)))
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Submissions: %d open, %d done, %d failed\n",
				stats[records.StatusPending], stats[records.StatusDone], stats[records.StatusFailed])
			return nil
		},
	}
}
