// Package confirm decides whether a planned refactoring gets applied. The
// decision strategies cover headless runs, interactive prompting, and
// scripted test doubles.
package confirm

import (
	"context"

	"github.com/mendtool/mend/internal/types"
)

// Decision is the outcome of a confirmation.
type Decision string

const (
	// Apply approves the refactoring
	Apply Decision = "apply"
	// Skip declines the refactoring and moves on
	Skip Decision = "skip"
)

// Request describes one planned refactoring awaiting a decision.
type Request struct {
	Refactoring types.Refactoring
	Score       float64
	// Changes holds the planned rewrites so deciders can preview them
	// before anything touches the working tree.
	Changes []types.FileChange
}

// Decider chooses what to do with one planned refactoring.
type Decider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// AutoDecider approves anything scoring at or above its threshold.
type AutoDecider struct {
	Threshold float64
}

// Decide applies the threshold. Boundary-inclusive.
func (d *AutoDecider) Decide(ctx context.Context, req Request) (Decision, error) {
	if req.Score >= d.Threshold {
		return Apply, nil
	}
	return Skip, nil
}

// ScriptedDecider replays a fixed sequence of decisions. It is the test
// double for the interactive flow; exhausting the script skips.
type ScriptedDecider struct {
	Decisions []Decision
	Err       error
	calls     int
}

// Decide returns the next scripted decision.
func (d *ScriptedDecider) Decide(ctx context.Context, req Request) (Decision, error) {
	if d.Err != nil {
		return Skip, d.Err
	}
	if d.calls >= len(d.Decisions) {
		return Skip, nil
	}
	decision := d.Decisions[d.calls]
	d.calls++
	return decision, nil
}

// Calls returns how many decisions were consumed.
func (d *ScriptedDecider) Calls() int {
	return d.calls
}
