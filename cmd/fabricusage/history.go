package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/mbarros/fabricusage/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent extraction runs from the local journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.OpenStore(history.DefaultPath())
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			runs, err := store.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tSTATUS\tWORKSPACE\tDATASET\tWINDOW\tROWS\tDESTINATION")
			for _, run := range runs {
				rows := 0
				for _, tbl := range run.Tables {
					rows += tbl.Rows
				}
				window := "-"
				if run.WindowStart != "" {
					window = run.WindowStart + "…" + run.WindowEnd
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					run.FinishedAt.Format("2006-01-02 15:04"),
					run.Status,
					run.WorkspaceName,
					run.DatasetName,
					window,
					rows,
					run.Destination,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of runs to print")
	return cmd
}
