package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
)

// newURLCommand prints byte-stream URLs with the access token embedded as a
// query parameter. This is the one place a token leaves the Authorization
// header: media elements and plain fetch tools cannot set custom headers.
// The printed URL grants read access to that stream until the token expires,
// so treat it like a credential.
func newURLCommand(ctx *commandContext) *cobra.Command {
	var conversionID int64
	var artifactFlag string

	cmd := &cobra.Command{
		Use:   "url <preview|download|thumbnail> <video|image> <media-id>",
		Short: "Print a tokenized byte-stream URL",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			purpose := args[0]
			kind, err := parseKindArg(args[1])
			if err != nil {
				return err
			}
			mediaID, err := parseIDArg(args[2], "media id")
			if err != nil {
				return err
			}
			client, store, err := ctx.requireAuth()
			if err != nil {
				return err
			}
			token := store.AccessToken()

			var url string
			switch purpose {
			case "preview":
				artifact, err := parseArtifactFlag(artifactFlag, conversionID)
				if err != nil {
					return err
				}
				url = client.PreviewURL(kind, mediaID, artifact, conversionID, token)
			case "download":
				url = client.DownloadURL(kind, mediaID, conversionID, token)
			case "thumbnail":
				if kind != api.KindVideo {
					return errors.New("thumbnails exist only for videos")
				}
				url = client.ThumbnailURL(mediaID, token)
			default:
				return fmt.Errorf("unknown url purpose %q (expected preview, download, or thumbnail)", purpose)
			}

			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().Int64Var(&conversionID, "conversion", 0, "Conversion job id (links the converted output)")
	cmd.Flags().StringVar(&artifactFlag, "artifact", string(api.ArtifactOriginal), "Artifact for preview URLs: original or converted")
	return cmd
}
