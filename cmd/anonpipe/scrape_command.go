package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScrapeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Drain the external quarantine folders into their mirrors",
		RunE: func(cmd *cobra.Command, args []string) error {
			quar, err := ctx.newQuarantine()
			if err != nil {
				return err
			}
			if err := quar.Scrape(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Scrape complete")
			return nil
		},
	}
}
