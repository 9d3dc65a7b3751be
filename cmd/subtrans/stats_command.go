package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"subtrans/internal/stats"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show translation statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := stats.Open(cfg.Paths.StatsDB)
			if err != nil {
				return fmt.Errorf("open stats: %w", err)
			}
			defer store.Close()

			summary, err := store.Totals(cmd.Context())
			if err != nil {
				return err
			}
			recent, err := store.Recent(cmd.Context(), limitFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Requests: %d (%d completed, %d failed)\n",
				summary.TotalRequests, summary.CompletedRequests, summary.FailedRequests)
			fmt.Fprintf(out, "Blocks translated: %d   Retries: %d   Failed chunks: %d\n\n",
				summary.TotalBlocks, summary.TotalRetries, summary.TotalFailedChunks)

			if len(recent) == 0 {
				fmt.Fprintln(out, "No requests recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(recent))
			for _, record := range recent {
				rows = append(rows, []string{
					record.CreatedAt.Local().Format(time.DateTime),
					record.Filename,
					record.TargetLanguage,
					record.Mode,
					strconv.Itoa(record.TotalBlocks),
					strconv.Itoa(record.RetryCount),
					strconv.Itoa(record.FailedChunks),
					record.Status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "File", "Language", "Mode", "Blocks", "Retries", "Failed", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "How many recent requests to show")
	return cmd
}
