package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
	"mediamorph/internal/journal"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Submit conversion jobs",
	}

	convertCmd.AddCommand(newConvertVideoCommand(ctx))
	convertCmd.AddCommand(newConvertImageCommand(ctx))
	return convertCmd
}

func newConvertVideoCommand(ctx *commandContext) *cobra.Command {
	var (
		format        string
		resolution    string
		bitrate       string
		fps           string
		codec         string
		keepAudio     bool
		cleanMetadata bool
		wait          bool
	)

	cmd := &cobra.Command{
		Use:   "video <media-id>",
		Short: "Convert an uploaded video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, err := parseIDArg(args[0], "video id")
			if err != nil {
				return err
			}
			req := api.VideoConversionRequest{
				VideoID:          videoID,
				TargetFormat:     strings.ToLower(format),
				TargetResolution: resolution,
				TargetBitrate:    bitrate,
				TargetFps:        fps,
				TargetCodec:      codec,
				KeepAudio:        keepAudio,
				CleanMetadata:    cleanMetadata,
			}
			return submitConversion(cmd, ctx, req, wait)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Target format: "+strings.Join(api.VideoFormats, ", "))
	cmd.Flags().StringVar(&resolution, "resolution", "", "Target resolution (empty keeps the source)")
	cmd.Flags().StringVar(&bitrate, "bitrate", "", "Target bitrate (empty lets the encoder choose)")
	cmd.Flags().StringVar(&fps, "fps", "", "Target frame rate")
	cmd.Flags().StringVar(&codec, "codec", "", "Target codec")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", true, "Keep the audio track")
	cmd.Flags().BoolVar(&cleanMetadata, "clean-metadata", false, "Strip source metadata")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Watch the job until it finishes")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func newConvertImageCommand(ctx *commandContext) *cobra.Command {
	var (
		format     string
		resolution string
		quality    int
		wait       bool
	)

	cmd := &cobra.Command{
		Use:   "image <media-id>",
		Short: "Convert an uploaded image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageID, err := parseIDArg(args[0], "image id")
			if err != nil {
				return err
			}
			req := api.ImageConversionRequest{
				ImageID:          imageID,
				TargetFormat:     strings.ToLower(format),
				TargetResolution: resolution,
				Quality:          quality,
			}
			return submitConversion(cmd, ctx, req, wait)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Target format: "+strings.Join(api.ImageFormats, ", "))
	cmd.Flags().StringVar(&resolution, "resolution", "", "Target resolution (empty keeps the source)")
	cmd.Flags().IntVarP(&quality, "quality", "q", 0, "Quality 10-95 (0 lets the encoder choose)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Watch the job until it finishes")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func submitConversion(cmd *cobra.Command, ctx *commandContext, req api.ConversionRequest, wait bool) error {
	client, _, err := ctx.requireAuth()
	if err != nil {
		return err
	}
	job, err := client.StartConversion(cmd.Context(), req)
	if err != nil {
		return errors.New(api.Message(err, "conversion failed"))
	}

	if err := ctx.withJournal(func(store *journal.Store) error {
		_, err := store.RecordConversion(cmd.Context(), req.Kind(), *job, "")
		return err
	}); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: journal write failed: %v\n", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s conversion job #%d (%s)\n",
		req.Kind(), job.ID, statusLabel(job.Status))
	if !wait {
		fmt.Fprintf(cmd.OutOrStdout(), "Track it with `mediamorph watch %s %d`\n", req.Kind(), job.ID)
		return nil
	}
	return watchJob(cmd, ctx, req.Kind(), job.ID)
}
