package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <video|image>",
		Short: "Show past conversions with their source media",
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
			items, err := client.History(cmd.Context(), kind)
			if err != nil {
				return errors.New(api.Message(err, "history failed"))
			}
			if asJSON {
				return writeJSON(cmd, items)
			}
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No %s conversions yet\n", kind)
				return nil
			}

			headers := []string{"Job", "Source", "Target", "Status", "Progress", "Error"}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				source := "-"
				if media := item.Media(); media != nil {
					source = media.OriginalFilename
				}
				rows = append(rows, []string{
					strconv.FormatInt(item.Conversion.ID, 10),
					source,
					orDash(item.Conversion.TargetFormat),
					statusLabel(item.Conversion.Status),
					fmt.Sprintf("%d%%", item.Conversion.Progress),
					orDash(item.Conversion.ErrorMessage),
				})
			}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
