package analysis

import (
	"fmt"

	"github.com/mendtool/mend/internal/types"
)

// AnalyzeFunc produces per-file opportunities on a cache miss.
type AnalyzeFunc func(file types.SourceFile) ([]types.Opportunity, error)

// FileError records a per-file analyzer failure that was logged and skipped.
type FileError struct {
	Path string
	Err  error
}

// Result carries everything one analysis pass produced. Opportunities may be
// partial when Cancelled is set.
type Result struct {
	Opportunities []types.Opportunity
	Cancelled     bool
	FilesAnalyzed int
	CacheHits     int
	Errors        []FileError
}

// Runner drives one incremental analysis pass: cache check, analyze on miss,
// progress update, cancellation check between files.
type Runner struct {
	cache    *Cache
	progress *Tracker
}

// NewRunner wires a cache and a progress tracker into a driving loop.
func NewRunner(cache *Cache, progress *Tracker) *Runner {
	return &Runner{cache: cache, progress: progress}
}

// Progress exposes the underlying tracker for display and cancellation.
func (r *Runner) Progress() *Tracker {
	return r.progress
}

// Run analyzes each file through fn, consulting the cache first. Per-file
// failures are logged and skipped; the remaining files continue. The cache
// is persisted at the end whether or not the pass was cancelled.
func (r *Runner) Run(files []types.SourceFile, fn AnalyzeFunc) *Result {
	result := &Result{}
	r.progress.Start(len(files))

	for _, file := range files {
		if r.progress.Cancelled() {
			result.Cancelled = true
			break
		}

		if cached, ok := r.cache.GetCached(file.Path, file.Content); ok {
			result.Opportunities = append(result.Opportunities, cached...)
			result.CacheHits++
			r.progress.Update(file.Path)
			continue
		}

		opportunities, err := fn(file)
		if err != nil {
			result.Errors = append(result.Errors, FileError{Path: file.Path, Err: err})
			fmt.Printf("Warning: analysis failed for %s: %v (skipping)\n", file.Path, err)
			r.progress.Update(file.Path)
			continue
		}

		r.cache.Store(file.Path, file.Content, opportunities)
		result.Opportunities = append(result.Opportunities, opportunities...)
		result.FilesAnalyzed++
		r.progress.Update(file.Path)
	}

	if err := r.cache.Save(); err != nil {
		fmt.Printf("Warning: failed to save analysis cache: %v\n", err)
	}

	return result
}
