package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediamorph/internal/api"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var conversionID int64
	var output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "download <video|image> <media-id>",
		Short: "Download an original or converted byte-stream to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			mediaID, err := parseIDArg(args[1], "media id")
			if err != nil {
				return err
			}
			client, _, err := ctx.requireAuth()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := output
			if target == "" {
				name := fmt.Sprintf("%s-%d", kind, mediaID)
				if conversionID > 0 {
					name = fmt.Sprintf("%s-conversion-%d", name, conversionID)
				}
				target = filepath.Join(cfg.Paths.DownloadDir, name)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create download directory: %w", err)
			}

			file, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create download file: %w", err)
			}
			defer file.Close()

			var bar *progressbar.ProgressBar
			var progress api.ProgressFunc
			if !quiet {
				bar = progressbar.NewOptions64(-1,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("downloading"),
					progressbar.OptionClearOnFinish(),
				)
				progress = func(sent, total int64) {
					if total > 0 && bar.GetMax64() != total {
						bar.ChangeMax64(total)
					}
					_ = bar.Set64(sent)
				}
			}

			written, err := client.Download(cmd.Context(), kind, mediaID, conversionID, file, progress)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				os.Remove(target)
				return errors.New(api.Message(err, "download failed"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", target, formatBytes(written))
			return nil
		},
	}

	cmd.Flags().Int64Var(&conversionID, "conversion", 0, "Conversion job id (downloads the converted output)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (defaults under the download directory)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress bar")
	return cmd
}
