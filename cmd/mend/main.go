// Command mend analyzes a codebase for refactoring opportunities and
// applies the best ones behind the project's own test suite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mendtool/mend/internal/analysis"
	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/git"
)

var rootDir string

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "mend",
	Version: version,
	Short:   "Automated refactoring gated by your own test suite",
	Long: `mend finds refactoring opportunities (duplicated code, oversized and
overly complex functions, model-flagged issues), keeps them in a
prioritized backlog, and applies the best candidates one batch at a
time.

Every batch runs inside a git checkpoint and every applied change must
pass the project's test suite. A failure that survives the repair
retries rolls the entire batch back, so the working tree is never left
broken.

State lives under .mend/ in the project root:
  config.yaml              settings (mend init writes a starter)
  cache.json               incremental analysis cache
  refactor-candidates.md   the prioritized backlog (editable markdown)
  history.db               execution history
  usage.json               model token and cost accounting

Set ANTHROPIC_API_KEY to enable semantic analysis and model-planned
refactorings; without it mend runs on structural heuristics alone.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root to operate on")
}

// loadSettings reads .mend/config.yaml under the root flag, exiting on
// an unreadable or invalid file.
func loadSettings() *config.Config {
	settings, err := config.Load(rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return settings
}

// runContext returns a context cancelled by Ctrl-C or SIGTERM.
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// gitOperations builds the git backend, or nil when git is unavailable.
func gitOperations(ctx context.Context) git.Operations {
	g, err := git.New(ctx)
	if err != nil {
		fmt.Printf("Warning: git unavailable: %v\n", err)
		return nil
	}
	return g
}

// watchProgress prints analysis progress every few seconds until done
// is closed. Quiet for runs short enough to never tick.
func watchProgress(tracker *analysis.Tracker, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := tracker.GetProgress()
			if p.Total == 0 || p.Completed == p.Total {
				continue
			}
			fmt.Printf("Analyzing: %d%% (%d/%d files), ETA %s\n", p.Percentage, p.Completed, p.Total, p.ETA)
		}
	}
}
