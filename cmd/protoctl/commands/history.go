package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		prune int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs from the workspace history",
		Long: `Show the most recent runs recorded in the workspace run history,
newest first. Each flow invocation is recorded with its per-section
results, so a failed run can be traced to the section that broke.`,
		Example: `  protoctl history
  protoctl history --limit 50

  # Drop everything but the latest 100 runs
  protoctl history --prune 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openHistory(ctx)
			if err != nil {
				return fmt.Errorf("opening run history: %w", err)
			}
			defer store.Close()

			if prune > 0 {
				removed, err := store.PruneRuns(ctx, prune)
				if err != nil {
					return fmt.Errorf("pruning runs: %w", err)
				}
				fmt.Printf("Pruned %d run(s), keeping the latest %d\n", removed, prune)
			}

			runs, err := store.ListRecentRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs recorded yet")
				return nil
			}

			fmt.Printf("%-20s %-18s %-14s %-10s %-10s %s\n",
				"STARTED", "SCRIPT", "COMPONENT", "STATUS", "SECTIONS", "DURATION")
			for _, run := range runs {
				fmt.Printf("%-20s %-18s %-14s %-10s %-10s %s\n",
					run.StartedAt.Format("2006-01-02 15:04:05"),
					run.Script,
					run.Component,
					run.Status,
					fmt.Sprintf("%d/%d", run.SectionsOK, run.SectionsTotal),
					formatDuration(run.Duration))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the latest N runs before listing")

	return cmd
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}
