package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <video|image> <job-id>",
		Short: "Fetch one conversion job snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			jobID, err := parseIDArg(args[1], "job id")
			if err != nil {
				return err
			}
			client, _, err := ctx.requireAuth()
			if err != nil {
				return err
			}
			job, err := client.JobStatus(cmd.Context(), kind, jobID)
			if err != nil {
				return errors.New(api.Message(err, "status fetch failed"))
			}
			if asJSON {
				return writeJSON(cmd, job)
			}
			printJobSnapshot(cmd, *job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func printJobSnapshot(cmd *cobra.Command, job api.ConversionJob) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderJobLine(job, colorize))
	if job.Status == api.JobFailed && job.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("reason", statusError, job.ErrorMessage, colorize))
	}
}
