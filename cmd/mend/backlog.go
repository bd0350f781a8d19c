package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/backlog"
	"github.com/mendtool/mend/internal/config"
)

var backlogAll bool

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Show the prioritized refactoring backlog",
	Long: `Show the refactoring candidates recorded by analysis, grouped into
High (impact 80+), Medium (50-79), and Low tiers.

The backlog is a plain markdown file at .mend/refactor-candidates.md;
edit it freely. mend re-reads it on every run, keeps your checkboxes,
and merges new findings by file:line.

Completed entries are hidden unless --all is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		tracker := backlog.NewTracker(config.BacklogPath(rootDir))
		doc, err := tracker.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if doc.Len() == 0 {
			fmt.Println("Backlog is empty. Run 'mend analyze' to fill it.")
			return
		}

		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		tiers := []struct {
			tier  backlog.Tier
			title string
			paint func(a ...interface{}) string
		}{
			{backlog.TierHigh, "High", red},
			{backlog.TierMedium, "Medium", yellow},
			{backlog.TierLow, "Low", gray},
		}

		shown := 0
		completed := 0
		for _, t := range tiers {
			entries := doc.TierEntries(t.tier)
			var visible []backlog.Entry
			for _, e := range entries {
				if e.Completed {
					completed++
					if !backlogAll {
						continue
					}
				}
				visible = append(visible, e)
			}
			if len(visible) == 0 {
				continue
			}

			fmt.Printf("%s (%d)\n", t.paint(strings.ToUpper(t.title)), len(visible))
			for _, e := range visible {
				fmt.Printf("  %s\n", backlog.FormatEntry(e))
			}
			fmt.Println()
			shown += len(visible)
		}

		if shown == 0 {
			fmt.Printf("All %d entries are completed. Use --all to see them.\n", completed)
			return
		}
		if completed > 0 && !backlogAll {
			fmt.Printf("(%d completed entries hidden; use --all)\n", completed)
		}
	},
}

func init() {
	backlogCmd.Flags().BoolVarP(&backlogAll, "all", "a", false, "Include completed entries")
	rootCmd.AddCommand(backlogCmd)
}
