package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/orchestrator"
	"github.com/mendtool/mend/internal/report"
	"github.com/mendtool/mend/internal/types"
)

var (
	runMode    string
	runChanged bool
	runFresh   bool
	runFormat  string
)

var runCmd = &cobra.Command{
	Use:   "run [target]",
	Short: "Analyze the project and apply refactorings behind the test gate",
	Long: `Run the full pipeline: analyze, score, then execute the best
candidates as one batch inside a git checkpoint.

Modes:
  interactive   show each planned change as a diff and ask (default)
  auto          apply every candidate scoring at or above auto_threshold
  analyze-only  report findings, change nothing

Each applied change must pass the project's test suite. When a failure
survives the repair retries the whole batch rolls back to the
checkpoint, including changes that had already passed.

The mode defaults to the config file's; --mode overrides it, and
MEND_AUTO_APPROVE=1 forces auto.

Example:
  mend run                     # interactive over the whole project
  mend run --mode auto src/    # unattended, one directory
  mend run --changed           # only files with uncommitted changes`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}

		format := report.Format(runFormat)
		if !format.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: unknown format %q (want table, markdown, or json)\n", runFormat)
			os.Exit(1)
		}

		settings := loadSettings()
		mode := types.Mode(settings.Mode)
		if runMode != "" {
			mode = types.Mode(runMode)
		}
		if !mode.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: invalid mode %q (want interactive, auto, or analyze-only)\n", mode)
			os.Exit(1)
		}

		ctx, stop := runContext()
		defer stop()

		orch, err := orchestrator.New(&orchestrator.Config{
			Root:        rootDir,
			Mode:        mode,
			Target:      target,
			ChangedOnly: runChanged,
			Fresh:       runFresh,
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

		rendered, renderErr := report.Render(data, format)
		if renderErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", renderErr)
			os.Exit(1)
		}
		fmt.Print(rendered)

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		if data.Cancelled {
			fmt.Printf("\n%s Run cancelled; results are partial and nothing was executed.\n", yellow("⚠"))
			return
		}

		result := data.Result
		if result == nil {
			return
		}

		fmt.Println()
		if result.RolledBack {
			fmt.Printf("%s Batch rolled back after a test failure; the working tree was restored.\n", red("✗"))
			for _, item := range result.Failed {
				fmt.Printf("  %s %s: %s\n", red("✗"), item.Refactoring.Target(), item.Error)
			}
			os.Exit(1)
		}

		fmt.Printf("%s Applied %d, skipped %d\n", green("✓"), len(result.Applied), len(result.Skipped))
		for _, item := range result.Applied {
			fmt.Printf("  %s %s\n", green("✓"), item.Refactoring.Description)
		}
	},
}

func init() {
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "", "Override the configured mode: interactive, auto, or analyze-only")
	runCmd.Flags().BoolVar(&runChanged, "changed", false, "Analyze only files with uncommitted git changes")
	runCmd.Flags().BoolVar(&runFresh, "fresh", false, "Discard the analysis cache and re-analyze everything")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "table", "Report format: table, markdown, or json")
	rootCmd.AddCommand(runCmd)
}
