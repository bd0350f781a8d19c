// Package usage tracks per-run analysis and model-spend counters as an
// explicit state object. The orchestrator owns one Tracker and passes
// it to the components that produce usage; nothing here is ambient or
// global.
package usage

import (
	"fmt"
	"sync"
	"time"
)

// Token prices in dollars per million tokens, matching the default
// model tier.
const (
	defaultInputCostPerMTok  = 3.0
	defaultOutputCostPerMTok = 15.0
)

// State is the persisted usage snapshot.
type State struct {
	FilesAnalyzed int64     `json:"files_analyzed"`
	CacheHits     int64     `json:"cache_hits"`
	ModelCalls    int64     `json:"model_calls"`
	InputTokens   int64     `json:"input_tokens"`
	OutputTokens  int64     `json:"output_tokens"`
	Cost          float64   `json:"cost"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository persists usage state. The file-backed implementation is
// the default; tests substitute an in-memory one.
type Repository interface {
	Load() (*State, error)
	Save(state *State) error
}

// Tracker accumulates usage counters behind a mutex.
type Tracker struct {
	mu    sync.Mutex
	state State
	repo  Repository
}

// NewTracker creates a tracker, resuming prior totals from the
// repository when they exist. A load failure starts fresh with a
// warning rather than blocking the run.
func NewTracker(repo Repository) *Tracker {
	t := &Tracker{repo: repo}
	if repo == nil {
		return t
	}

	state, err := repo.Load()
	if err != nil {
		fmt.Printf("Warning: failed to load usage state: %v (starting fresh)\n", err)
		return t
	}
	if state != nil {
		t.state = *state
	}
	return t
}

// RecordAnalysis adds one analysis pass's file counts.
func (t *Tracker) RecordAnalysis(filesAnalyzed, cacheHits int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.FilesAnalyzed += int64(filesAnalyzed)
	t.state.CacheHits += int64(cacheHits)
	t.state.UpdatedAt = time.Now()
}

// RecordModelCall adds one model call's token counts and cost. This is
// the ai.UsageRecorder contract.
func (t *Tracker) RecordModelCall(inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.ModelCalls++
	t.state.InputTokens += inputTokens
	t.state.OutputTokens += outputTokens
	t.state.Cost += cost(inputTokens, outputTokens)
	t.state.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Flush persists the current state through the repository.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if t.repo == nil {
		return nil
	}
	if err := t.repo.Save(&state); err != nil {
		return fmt.Errorf("failed to save usage state: %w", err)
	}
	return nil
}

func cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)*defaultInputCostPerMTok/1_000_000 +
		float64(outputTokens)*defaultOutputCostPerMTok/1_000_000
}
