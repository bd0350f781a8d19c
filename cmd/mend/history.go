package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [batch-id]",
	Short: "Show past execution batches",
	Long: `Show recent execution batches, newest first. Pass a batch id to see
the per-refactoring outcomes of that batch.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := config.HistoryPath(rootDir)
		if _, err := os.Stat(path); err != nil {
			fmt.Println("No execution history yet. Run 'mend run' to create some.")
			return
		}

		store, err := history.New(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		ctx, cancel := runContext()
		defer cancel()

		if len(args) == 1 {
			showBatch(ctx, store, args[0])
			return
		}
		showRecent(ctx, store)
	},
}

func showRecent(ctx context.Context, store *history.Store) {
	batches, err := store.RecentBatches(ctx, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(batches) == 0 {
		fmt.Println("No execution history yet. Run 'mend run' to create some.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Started", "Mode", "Applied", "Skipped", "Failed", "Result"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	for _, b := range batches {
		table.Append([]string{
			b.ID,
			b.StartedAt.Local().Format("2006-01-02 15:04"),
			string(b.Mode),
			fmt.Sprintf("%d", b.Applied),
			fmt.Sprintf("%d", b.Skipped),
			fmt.Sprintf("%d", b.Failed),
			batchResult(b),
		})
	}
	table.Render()
}

func showBatch(ctx context.Context, store *history.Store, batchID string) {
	items, err := store.BatchItems(ctx, batchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no batch %q in history\n", batchID)
		os.Exit(1)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("Batch %s\n\n", batchID)
	for _, item := range items {
		mark := yellow("-")
		switch item.Status {
		case history.StatusApplied:
			mark = green("✓")
		case history.StatusFailed:
			mark = red("✗")
		}
		fmt.Printf("%s [%s] %s: %s\n", mark, item.Type, item.Target, item.Description)
		if item.Error != "" {
			fmt.Printf("    %s\n", red(item.Error))
		}
	}
}

// batchResult summarizes one batch row: rolled back, in progress (no
// finish time recorded), or the elapsed wall time.
func batchResult(b history.Batch) string {
	if b.RolledBack {
		return "rolled back"
	}
	if b.FinishedAt == nil {
		return "in progress"
	}
	return b.FinishedAt.Sub(b.StartedAt).Round(time.Second).String()
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of batches to show")
	rootCmd.AddCommand(historyCmd)
}
