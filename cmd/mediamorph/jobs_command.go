package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediamorph/internal/journal"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List locally journaled uploads and conversions",
		Long: "List activity recorded by this client without contacting the " +
			"server. The journal reflects terminal statuses observed while " +
			"watching; jobs finished elsewhere may appear stale.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				var entries []*journal.Entry
				var err error
				if pendingOnly {
					entries, err = store.ListPending(cmd.Context())
				} else {
					entries, err = store.List(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No journaled activity")
					return nil
				}

				headers := []string{"Kind", "Media", "Job", "File", "Target", "Status", "Progress", "When"}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					jobCell := "-"
					if entry.ConversionID > 0 {
						jobCell = strconv.FormatInt(entry.ConversionID, 10)
					}
					rows = append(rows, []string{
						string(entry.Kind),
						strconv.FormatInt(entry.MediaID, 10),
						jobCell,
						orDash(entry.OriginalFilename),
						orDash(entry.TargetFormat),
						entry.Status,
						fmt.Sprintf("%d%%", entry.Progress),
						formatTimestamp(entry.UpdatedAt),
					})
				}
				aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Show only conversions not yet terminal")
	return cmd
}
