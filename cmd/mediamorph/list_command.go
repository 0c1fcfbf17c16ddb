package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <video|image>",
		Short: "List uploaded media for the current account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return err
			}
			client, _, err := ctx.requireAuth()
			if err != nil {
				return err
			}
			assets, err := client.ListMedia(cmd.Context(), kind)
			if err != nil {
				return errors.New(api.Message(err, "list failed"))
			}
			if asJSON {
				return writeJSON(cmd, assets)
			}
			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintf(out, "No %s uploads yet\n", kind)
				return nil
			}

			headers := []string{"ID", "Filename", "Format", "Resolution", "Size", "Preview", "Uploaded"}
			rows := make([][]string, 0, len(assets))
			for _, asset := range assets {
				preview := "pending"
				if kind == api.KindImage || asset.PreviewPath != "" {
					preview = "ready"
				}
				rows = append(rows, []string{
					strconv.FormatInt(asset.ID, 10),
					asset.OriginalFilename,
					orDash(asset.OriginalFormat),
					orDash(asset.OriginalResolution),
					formatBytes(asset.FileSize),
					preview,
					formatTimestamp(asset.CreatedAt),
				})
			}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
