package main

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediamorph/internal/api"
	"mediamorph/internal/journal"
	"mediamorph/internal/uploader"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var bulk bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload media files to the conversion service",
		Long: "Upload media files to the conversion service. Files are classified " +
			"as image or video by extension and sent strictly one at a time. " +
			"Without --bulk only the first file is uploaded.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			tasks := make([]uploader.Task, 0, len(args))
			for _, arg := range args {
				task, err := uploader.NewTask(arg)
				if err != nil {
					return err
				}
				tasks = append(tasks, task)
			}

			mode := uploader.ModeSingle
			if bulk {
				mode = uploader.ModeBulk
			}

			var bar *progressbar.ProgressBar
			if !quiet {
				bar = progressbar.NewOptions(100,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("uploading"),
					progressbar.OptionClearOnFinish(),
				)
			}

			return ctx.withJournal(func(store *journal.Store) error {
				orch := uploader.New(client,
					uploader.WithLogger(logger),
					uploader.WithChunkThreshold(cfg.UploadChunkBytes()),
					uploader.WithProgress(func(overall int, index int, task uploader.Task) {
						if bar != nil {
							_ = bar.Set(overall)
						}
					}),
					uploader.WithCompletion(func(kind api.Kind, asset api.MediaAsset) {
						if _, err := store.RecordUpload(cmd.Context(), kind, asset); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal write failed: %v\n", err)
						}
					}),
				)

				outcome, err := orch.Submit(cmd.Context(), tasks, mode)
				if bar != nil {
					_ = bar.Finish()
				}
				out := cmd.OutOrStdout()
				if err != nil {
					if outcome.Completed > 0 {
						fmt.Fprintf(out, "Uploaded %d of %d files before failure\n", outcome.Completed, len(tasks))
					}
					return errors.New(api.Message(err, err.Error()))
				}
				for _, asset := range outcome.Assets {
					fmt.Fprintf(out, "Uploaded %s as media #%d\n", asset.OriginalFilename, asset.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&bulk, "bulk", false, "Upload every listed file instead of only the first")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress bar")
	return cmd
}
