package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
	"mediamorph/internal/readiness"
)

func newReadyCommand(ctx *commandContext) *cobra.Command {
	var conversionID int64
	var artifactFlag string
	var wait bool

	cmd := &cobra.Command{
		Use:   "ready <video|image> <media-id>",
		Short: "Check whether a preview or conversion output is ready",
		Long: "Check whether a media artifact has a byte-stream available. " +
			"Originals are gated on server-side preview generation; converted " +
			"outputs on their job reaching Completed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			mediaID, err := parseIDArg(args[1], "media id")
			if err != nil {
				return err
			}
			artifact, err := parseArtifactFlag(artifactFlag, conversionID)
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
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			interval := cfg.PollInterval()
			if artifact == api.ArtifactOriginal {
				interval = cfg.HistoryPollInterval()
			}
			resolver := readiness.New(client,
				readiness.WithInterval(interval),
				readiness.WithLogger(logger))

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if wait {
				if _, err := resolver.Wait(cmd.Context(), kind, mediaID, conversionID, artifact); err != nil {
					if readiness.IsFailed(err) {
						return errors.New(api.Message(err, "conversion failed"))
					}
					return err
				}
				fmt.Fprintln(out, renderStatusLine("artifact", statusOK, "ready", colorize))
				return nil
			}

			result, err := resolver.Check(cmd.Context(), kind, mediaID, conversionID, artifact)
			if err != nil {
				return errors.New(api.Message(err, "readiness check failed"))
			}
			if result.Ready {
				fmt.Fprintln(out, renderStatusLine("artifact", statusOK, "ready", colorize))
				return nil
			}
			fmt.Fprintln(out, renderStatusLine("artifact", statusWarn, result.Message, colorize))
			return nil
		},
	}

	cmd.Flags().Int64Var(&conversionID, "conversion", 0, "Conversion job id (checks converted output)")
	cmd.Flags().StringVar(&artifactFlag, "artifact", string(api.ArtifactOriginal), "Artifact to check: original or converted")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Keep checking until ready")
	return cmd
}
