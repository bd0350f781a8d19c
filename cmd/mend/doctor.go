package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/backlog"
	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/scan"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check mend configuration and environment health",
	Long: `Run health checks to diagnose common mend configuration and environment
issues.

This command checks for:
- Configuration validity
- Source files under the project root
- Git availability and repository status
- A usable test command
- ANTHROPIC_API_KEY for semantic analysis
- State directory permissions

Exit codes:
  0 - All checks passed
  1 - One or more checks failed (but not critical)
  2 - Critical failures that prevent mend from running`,
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running mend health checks...\n\n")

		var failures []string
		var warnings []string
		var criticalFailures []string

		ctx := context.Background()

		// Check 1: Configuration
		fmt.Printf("%s Configuration\n", cyan("→"))
		var settings *config.Config
		if loaded, err := config.Load(rootDir); err != nil {
			criticalFailures = append(criticalFailures, fmt.Sprintf("Invalid configuration: %v", err))
			fmt.Printf("  %s Configuration is invalid\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			settings = loaded
			if _, err := os.Stat(config.Path(rootDir)); err != nil {
				fmt.Printf("  %s No config file, using defaults (run 'mend init' to write one)\n", yellow("⚠"))
			} else {
				fmt.Printf("  %s Loaded %s\n", green("✓"), config.Path(rootDir))
			}
			fmt.Printf("  %s Mode: %s, auto threshold: %.0f\n", green("✓"), settings.Mode, settings.AutoThreshold)
		}

		// Check 2: Source files
		fmt.Printf("%s Source files\n", cyan("→"))
		if settings != nil {
			scanner := scan.New(rootDir, settings.Extensions, settings.SkipDirs, nil)
			if files, err := scanner.All(); err != nil {
				failures = append(failures, fmt.Sprintf("Cannot scan project: %v", err))
				fmt.Printf("  %s Cannot scan %s\n", red("✗"), rootDir)
				if verbose {
					fmt.Printf("    Error: %v\n", err)
				}
			} else if len(files) == 0 {
				warnings = append(warnings, "No source files found (check extensions/skip_dirs)")
				fmt.Printf("  %s No source files found under %s\n", yellow("⚠"), rootDir)
			} else {
				fmt.Printf("  %s Found %d source file(s)\n", green("✓"), len(files))
				if verbose {
					for i, f := range files {
						if i >= 5 {
							fmt.Printf("    ... and %d more\n", len(files)-5)
							break
						}
						fmt.Printf("    %s\n", f)
					}
				}
			}
		}

		// Check 3: Git
		fmt.Printf("%s Git repository\n", cyan("→"))
		if _, err := exec.LookPath("git"); err != nil {
			failures = append(failures, "git not found in PATH (execution needs git checkpoints)")
			fmt.Printf("  %s git not found in PATH\n", red("✗"))
			fmt.Printf("    'mend run' needs git for checkpoints; 'mend analyze' still works\n")
		} else if g, err := git.New(ctx); err != nil {
			failures = append(failures, fmt.Sprintf("git unusable: %v", err))
			fmt.Printf("  %s git unusable: %v\n", red("✗"), err)
		} else if !g.IsRepo(ctx, rootDir) {
			failures = append(failures, "Not a git repository (execution needs git checkpoints)")
			fmt.Printf("  %s %s is not a git repository\n", yellow("⚠"), rootDir)
			fmt.Printf("    'mend run' needs git for checkpoints; 'mend analyze' still works\n")
		} else {
			fmt.Printf("  %s Git repository detected\n", green("✓"))
			if status, err := g.GetStatus(ctx, rootDir); err == nil && status.HasChanges {
				changed := len(status.Modified) + len(status.Added) + len(status.Deleted) + len(status.Renamed)
				fmt.Printf("  %s Uncommitted changes detected (%d files)\n", yellow("⚠"), changed)
				fmt.Printf("    Checkpoints capture them; commit first for a cleaner rollback story\n")
			} else if err == nil {
				fmt.Printf("  %s Working directory clean\n", green("✓"))
			}
		}

		// Check 4: Test command
		fmt.Printf("%s Test command\n", cyan("→"))
		if settings != nil {
			testCmd := settings.TestCommand
			detected := ""
			if testCmd == "" {
				testCmd = scan.DetectTestCommand(rootDir)
				detected = " (detected)"
			}
			if testCmd == "" {
				failures = append(failures, fmt.Sprintf("No test command; set test_command in %s", config.Path(rootDir)))
				fmt.Printf("  %s No test command configured or detected\n", red("✗"))
				fmt.Printf("    'mend run' refuses to apply changes without a test gate\n")
			} else {
				fmt.Printf("  %s Test command%s: %s\n", green("✓"), detected, testCmd)
			}
		}

		// Check 5: Model access
		fmt.Printf("%s Model access\n", cyan("→"))
		if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey == "" {
			warnings = append(warnings, "ANTHROPIC_API_KEY not set (heuristic analysis only)")
			fmt.Printf("  %s ANTHROPIC_API_KEY not set\n", yellow("⚠"))
			fmt.Printf("    Semantic analysis and model-planned refactorings are disabled\n")
		} else {
			fmt.Printf("  %s ANTHROPIC_API_KEY is set\n", green("✓"))
			if verbose && len(apiKey) > 14 {
				fmt.Printf("    Key: %s...%s\n", apiKey[:10], apiKey[len(apiKey)-4:])
			}
		}

		// Check 6: State directory
		fmt.Printf("%s State directory\n", cyan("→"))
		stateDir := filepath.Join(rootDir, config.StateDir)
		if info, err := os.Stat(stateDir); err != nil {
			fmt.Printf("  %s State directory does not exist (will be created on first run)\n", green("✓"))
		} else if !info.IsDir() {
			criticalFailures = append(criticalFailures, fmt.Sprintf("%s exists but is not a directory", stateDir))
			fmt.Printf("  %s %s exists but is not a directory\n", red("✗"), stateDir)
		} else if probe, err := os.CreateTemp(stateDir, ".doctor-*"); err != nil {
			criticalFailures = append(criticalFailures, fmt.Sprintf("%s is not writable: %v", stateDir, err))
			fmt.Printf("  %s State directory is not writable\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
		} else {
			probe.Close()
			os.Remove(probe.Name())
			fmt.Printf("  %s State directory writable\n", green("✓"))

			// Check 7: State files
			if doc, err := backlog.NewTracker(config.BacklogPath(rootDir)).Load(); err == nil && doc.Len() > 0 {
				completed := 0
				for _, tier := range []backlog.Tier{backlog.TierHigh, backlog.TierMedium, backlog.TierLow} {
					for _, e := range doc.TierEntries(tier) {
						if e.Completed {
							completed++
						}
					}
				}
				fmt.Printf("  %s Backlog has %d entries (%d completed)\n", green("✓"), doc.Len(), completed)
			}
			if info, err := os.Stat(config.CachePath(rootDir)); err == nil {
				fmt.Printf("  %s Analysis cache present (%d bytes)\n", green("✓"), info.Size())
			}
			if info, err := os.Stat(config.HistoryPath(rootDir)); err == nil {
				fmt.Printf("  %s Execution history present (%d bytes)\n", green("✓"), info.Size())
			}
		}

		// Summary
		fmt.Printf("\n%s\n", strings.Repeat("─", 60))

		totalIssues := len(criticalFailures) + len(failures) + len(warnings)
		if totalIssues == 0 {
			fmt.Printf("%s All checks passed! mend is ready to run.\n", green("✓"))
			os.Exit(0)
		}

		if len(criticalFailures) > 0 {
			fmt.Printf("\n%s Critical failures (%d):\n", red("✗"), len(criticalFailures))
			for _, failure := range criticalFailures {
				fmt.Printf("  • %s\n", failure)
			}
		}

		if len(failures) > 0 {
			fmt.Printf("\n%s Failures (%d):\n", red("✗"), len(failures))
			for _, failure := range failures {
				fmt.Printf("  • %s\n", failure)
			}
		}

		if len(warnings) > 0 {
			fmt.Printf("\n%s Warnings (%d):\n", yellow("⚠"), len(warnings))
			for _, warning := range warnings {
				fmt.Printf("  • %s\n", warning)
			}
		}

		if len(criticalFailures) > 0 {
			fmt.Printf("\n%s mend cannot run until critical issues are resolved.\n", red("✗"))
			os.Exit(2)
		}

		if len(failures) > 0 {
			fmt.Printf("\n%s mend may not work correctly. Please address the failures above.\n", yellow("⚠"))
			os.Exit(1)
		}

		fmt.Printf("\n%s mend should work, but some warnings were detected.\n", green("✓"))
		os.Exit(0)
	},
}

func init() {
	doctorCmd.Flags().BoolP("verbose", "v", false, "Show detailed diagnostic information")
	rootCmd.AddCommand(doctorCmd)
}
