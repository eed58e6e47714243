package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQuarantineCommand(ctx *commandContext) *cobra.Command {
	quarantineCmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Inspect and manage quarantined files",
	}

	quarantineCmd.AddCommand(newQuarantineListCommand(ctx))
	quarantineCmd.AddCommand(newQuarantineFilesCommand(ctx))

	return quarantineCmd
}

func newQuarantineListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs with quarantined files",
		RunE: func(cmd *cobra.Command, args []string) error {
			quar, err := ctx.newQuarantine()
			if err != nil {
				return err
			}

			ids, err := quar.JobIDs()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, id := range ids {
				count, err := quar.FileCount(id)
				if err != nil {
					return err
				}
				rows = append(rows, []string{strconv.FormatInt(id, 10), strconv.Itoa(count)})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No quarantined jobs")
			} else {
				fmt.Fprintln(out, renderTable(
					[]string{"Job", "Files"},
					rows,
					[]columnAlignment{alignRight, alignRight},
				))
			}

			unknown, err := quar.UnknownJobFiles()
			if err != nil {
				return err
			}
			if len(unknown) > 0 {
				fmt.Fprintf(out, "%d file(s) without a recognizable job\n", len(unknown))
			}
			return nil
		},
	}
}

func newQuarantineFilesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "files <job-id>",
		Short: "List quarantined files for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			quar, err := ctx.newQuarantine()
			if err != nil {
				return err
			}

			files, err := quar.Files(jobID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No quarantined files for job %d\n", jobID)
				return nil
			}

			var rows [][]string
			for _, file := range files {
				rows = append(rows, []string{file.Folder.Description, file.Path})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Quarantine", "File"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <job-id>",
		Short: "Move a job's quarantined files to the archive",
		Long:  "Move every quarantined file of the given job out of the active mirrors into their archive counterparts. The files are kept, they just stop showing up in list and files output. Archiving a job with no quarantined files is a no-op.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			quar, err := ctx.newQuarantine()
			if err != nil {
				return err
			}

			count, err := quar.FileCount(jobID)
			if err != nil {
				return err
			}
			if err := quar.Archive(jobID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d file(s) for job %d\n", count, jobID)
			return nil
		},
	}
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q: expected a positive integer", raw)
	}
	return id, nil
}
