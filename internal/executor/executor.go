// Package executor applies batches of refactorings under a test gate.
//
// Every batch runs inside a checkpoint: the executor snapshots the
// working tree before touching any file, applies refactorings one at a
// time, and runs the test gate after each application. A gate failure
// that survives the autofix retries rolls the entire batch back to the
// checkpoint and stops. Only a fully green batch keeps its changes.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mendtool/mend/internal/confirm"
	"github.com/mendtool/mend/internal/gates"
	"github.com/mendtool/mend/internal/types"
)

// DefaultMaxAutofixAttempts is the number of gate re-runs allowed per
// refactoring before the batch is declared failed.
const DefaultMaxAutofixAttempts = 2

// Item is a single refactoring queued for execution, carrying the score
// it was selected with so deciders can surface it.
type Item struct {
	Refactoring types.Refactoring
	Score       float64
}

// CheckpointStore snapshots and restores the working tree around a batch.
type CheckpointStore interface {
	Create(ctx context.Context) (*types.Checkpoint, error)
	Rollback(ctx context.Context, cp *types.Checkpoint) error
	Release(ctx context.Context, cp *types.Checkpoint)
}

// Executor applies refactoring batches transactionally.
type Executor struct {
	root        string
	checkpoints CheckpointStore
	gate        gates.Provider
	decider     confirm.Decider
	autofixer   Autofixer
	maxAttempts int
}

// Config holds executor configuration.
type Config struct {
	// Root is the repository root all file paths resolve against.
	Root string

	// Checkpoints snapshots the tree before the batch starts.
	Checkpoints CheckpointStore

	// Gate runs the test suite after each applied refactoring.
	Gate gates.Provider

	// Decider is consulted before each refactoring is applied. A nil
	// decider applies everything.
	Decider confirm.Decider

	// Autofixer runs between failed gate attempts. A nil autofixer
	// re-runs the gate without changing anything.
	Autofixer Autofixer

	// MaxAutofixAttempts caps gate retries per refactoring. Zero or
	// negative selects DefaultMaxAutofixAttempts.
	MaxAutofixAttempts int
}

// NewExecutor creates an executor with the given configuration.
func NewExecutor(cfg *Config) (*Executor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("test gate is required")
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}
	attempts := cfg.MaxAutofixAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAutofixAttempts
	}
	fixer := cfg.Autofixer
	if fixer == nil {
		fixer = NoopAutofixer{}
	}

	return &Executor{
		root:        root,
		checkpoints: cfg.Checkpoints,
		gate:        cfg.Gate,
		decider:     cfg.Decider,
		autofixer:   fixer,
		maxAttempts: attempts,
	}, nil
}

// Execute applies the batch in order. It returns the per-item outcome
// and an error only when execution itself broke down (a failed rollback
// or confirmation); a gate failure is reported through the result.
func (e *Executor) Execute(ctx context.Context, items []Item) (*types.ExecutionResult, error) {
	result := &types.ExecutionResult{}
	if len(items) == 0 {
		return result, nil
	}

	cp, err := e.checkpoints.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint: %w", err)
	}

	for i, item := range items {
		changes, planErr := Plan(e.root, item.Refactoring)
		if planErr != nil {
			result.Failed = append(result.Failed, types.ItemResult{
				Refactoring: item.Refactoring,
				Error:       planErr.Error(),
			})
			if err := e.rollback(ctx, cp, result); err != nil {
				return result, err
			}
			return result, nil
		}

		if e.decider != nil {
			decision, err := e.decider.Decide(ctx, confirm.Request{
				Refactoring: item.Refactoring,
				Score:       item.Score,
				Changes:     changes,
			})
			if err != nil {
				if rbErr := e.rollback(ctx, cp, result); rbErr != nil {
					return result, fmt.Errorf("confirmation failed: %v (rollback also failed: %w)", err, rbErr)
				}
				return result, fmt.Errorf("confirmation failed: %w", err)
			}
			if decision == confirm.Skip {
				result.Skipped = append(result.Skipped, types.ItemResult{Refactoring: item.Refactoring})
				continue
			}
		}

		if err := e.applyChanges(changes); err != nil {
			result.Failed = append(result.Failed, types.ItemResult{
				Refactoring: item.Refactoring,
				Error:       err.Error(),
			})
			if rbErr := e.rollback(ctx, cp, result); rbErr != nil {
				return result, rbErr
			}
			return result, nil
		}

		gateResult, passed := e.runGateWithRetries(ctx, item)
		if !passed {
			itemResult := types.ItemResult{
				Refactoring: item.Refactoring,
				GateOutput:  gateResult.Output,
				Error:       "test gate failed",
			}
			if gateResult.Error != nil {
				itemResult.Error = gateResult.Error.Error()
			}
			result.Failed = append(result.Failed, itemResult)
			if err := e.rollback(ctx, cp, result); err != nil {
				return result, err
			}
			return result, nil
		}

		result.Applied = append(result.Applied, types.ItemResult{
			Refactoring: item.Refactoring,
			GateOutput:  gateResult.Output,
		})
		fmt.Printf("Applied %d/%d: %s\n", i+1, len(items), item.Refactoring.Description)
	}

	e.checkpoints.Release(ctx, cp)
	return result, nil
}

// rollback restores the checkpoint after a failure and marks the result.
// The checkpoint is kept when restoration fails so it can be recovered
// manually.
func (e *Executor) rollback(ctx context.Context, cp *types.Checkpoint, result *types.ExecutionResult) error {
	if err := e.checkpoints.Rollback(ctx, cp); err != nil {
		return fmt.Errorf("failed to roll back batch: %w", err)
	}
	result.RolledBack = true
	e.checkpoints.Release(ctx, cp)
	return nil
}

// applyChanges writes the planned file contents under the root.
func (e *Executor) applyChanges(changes []types.FileChange) error {
	for _, change := range changes {
		path := filepath.Join(e.root, change.File)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", change.File, err)
			}
		}
		if err := os.WriteFile(path, []byte(change.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", change.File, err)
		}
	}
	return nil
}

// runGateWithRetries runs the test gate, invoking the autofixer between
// failed attempts. It returns the last gate result and whether any
// attempt passed.
func (e *Executor) runGateWithRetries(ctx context.Context, item Item) (*gates.Result, bool) {
	var last *gates.Result
	for attempt := 0; attempt <= e.maxAttempts; attempt++ {
		if attempt > 0 {
			fmt.Printf("Tests failed, retrying (%d/%d): %s\n", attempt, e.maxAttempts, item.Refactoring.Description)
			if err := e.autofixer.Fix(ctx, item, last.Output); err != nil {
				fmt.Printf("Warning: autofix attempt failed: %v\n", err)
			}
		}
		last = e.gate.Run(ctx)
		if last.Passed {
			return last, true
		}
	}
	return last, false
}
