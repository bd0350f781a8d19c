// scripts/prune-history.go - Manual execution history pruning tool
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mendtool/mend/internal/config"
	"github.com/mendtool/mend/internal/history"
)

func main() {
	ctx := context.Background()

	root := "."
	if envRoot := os.Getenv("MEND_ROOT"); envRoot != "" {
		root = envRoot
	}

	// Keep 90 days of batches unless overridden
	keepDays := 90
	if envDays := os.Getenv("MEND_HISTORY_KEEP_DAYS"); envDays != "" {
		parsed, err := strconv.Atoi(envDays)
		if err != nil || parsed < 1 {
			fmt.Fprintf(os.Stderr, "Error: MEND_HISTORY_KEEP_DAYS must be a positive integer, got %q\n", envDays)
			os.Exit(1)
		}
		keepDays = parsed
	}

	path := config.HistoryPath(root)
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("No history database at %s, nothing to prune\n", path)
		return
	}

	fmt.Printf("Opening history database: %s\n", path)

	store, err := history.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -keepDays)
	fmt.Printf("Pruning batches started before %s...\n", cutoff.Format("2006-01-02"))

	removed, err := store.PruneBatches(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during prune: %v\n", err)
		os.Exit(1)
	}

	if removed > 0 {
		fmt.Printf("✓ Removed %d old batch(es) and their item records\n", removed)
	} else {
		fmt.Println("✓ No batches older than the cutoff")
	}
}
