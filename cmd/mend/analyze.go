package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/report"
	"github.com/mendtool/mend/internal/types"
)

var (
	analyzeChanged bool
	analyzeFresh   bool
	analyzeFormat  string
	analyzeOutput  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [target]",
	Short: "Find refactoring opportunities without changing anything",
	Long: `Scan the project for refactoring opportunities and record them in the
backlog. Nothing in the working tree is modified.

Detectors:
  - duplicated code blocks across and within files
  - functions over the complexity threshold
  - functions over the length threshold
  - semantic issues (when ANTHROPIC_API_KEY is set)

Analysis is incremental: unchanged files are served from the cache
under .mend/cache.json.

Example:
  mend analyze                 # whole project
  mend analyze src/billing     # one directory
  mend analyze --changed       # only files with uncommitted changes
  mend analyze -f markdown -o report.md`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		format := report.Format(analyzeFormat)
		if !format.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want table, markdown, or json)\n", analyzeFormat)
			os.Exit(1)
		}

		settings := loadSettings()
		ctx, stop := runContext()
		defer stop()

		orch, err := orchestrator.New(&orchestrator.Config{
			Root:        rootDir,
			Mode:        types.ModeAnalyzeOnly,
			Target:      target,
			ChangedOnly: analyzeChanged,
			Fresh:       analyzeFresh,
			Settings:    settings,
			Git:         gitOperations(ctx),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		done := make(chan struct{})
		go watchProgress(orch.Progress(), done)
		data, err := orch.Run(ctx)
		close(done)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		rendered, err := report.Render(data, format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		if analyzeOutput != "" {
			if err := os.WriteFile(analyzeOutput, []byte(rendered), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to write report: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Report written to %s\n", green("✓"), analyzeOutput)
		} else {
			fmt.Print(rendered)
		}

		if data.Cancelled {
			fmt.Printf("\n%s Analysis cancelled; results are partial.\n", yellow("⚠"))
		}
		if len(data.Opportunities) > 0 {
			fmt.Printf("\n%s %d candidate(s) recorded in %s\n", green("✓"), len(data.Opportunities), config.BacklogPath(rootDir))
		}
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeChanged, "changed", false, "Analyze only files with uncommitted git changes")
	analyzeCmd.Flags().BoolVar(&analyzeFresh, "fresh", false, "Discard the analysis cache and re-analyze everything")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "table", "Report format: table, markdown, or json")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.AddCommand(analyzeCmd)
}
