package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
	"mediamorph/internal/journal"
	"mediamorph/internal/poller"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <video|image> <job-id>",
		Short: "Poll a conversion job until it finishes",
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
			if _, _, err := ctx.requireAuth(); err != nil {
				return err
			}
			return watchJob(cmd, ctx, kind, jobID)
		},
	}
}

// watchJob streams snapshots to the terminal and mirrors terminal status
// into the local journal.
func watchJob(cmd *cobra.Command, ctx *commandContext, kind api.Kind, jobID int64) error {
	client, _, err := ctx.requireAuth()
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	return ctx.withJournal(func(store *journal.Store) error {
		watcher := poller.New(client,
			poller.WithLogger(logger),
			poller.WithInterval(cfg.PollInterval()),
			poller.WithTerminalHook(func(kind api.Kind, job api.ConversionJob) {
				if err := store.UpdateConversion(cmd.Context(), kind, job); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal write failed: %v\n", err)
				}
			}))

		snapshots, err := watcher.Watch(cmd.Context(), kind, jobID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)
		var final *api.ConversionJob
		for snap := range snapshots {
			if snap.Err != nil {
				fmt.Fprintln(out, renderStatusLine(fmt.Sprintf("job #%d", jobID), statusWarn,
					api.Message(snap.Err, "status fetch failed, retrying"), colorize))
				continue
			}
			fmt.Fprintln(out, renderJobLine(*snap.Job, colorize))
			final = snap.Job
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
		if final == nil {
			return fmt.Errorf("watch ended without a status for job %d", jobID)
		}
		switch final.Status {
		case api.JobFailed:
			message := final.ErrorMessage
			if message == "" {
				message = "conversion failed"
			}
			return errors.New(message)
		case api.JobCompleted:
			fmt.Fprintf(out, "Download it with `mediamorph download %s %d --conversion %d`\n",
				kind, final.MediaID(), final.ID)
		}
		return nil
	})
}
