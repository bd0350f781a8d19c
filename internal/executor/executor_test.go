package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendtool/mend/internal/confirm"
	"github.com/mendtool/mend/internal/gates"
	"github.com/mendtool/mend/internal/types"
)

type fakeCheckpoints struct {
	creates     int
	rollbacks   int
	releases    int
	createErr   error
	rollbackErr error
}

func (f *fakeCheckpoints) Create(ctx context.Context) (*types.Checkpoint, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &types.Checkpoint{ID: "test", Ref: "abc123", CreatedAt: time.Now()}, nil
}

func (f *fakeCheckpoints) Rollback(ctx context.Context, cp *types.Checkpoint) error {
	f.rollbacks++
	return f.rollbackErr
}

func (f *fakeCheckpoints) Release(ctx context.Context, cp *types.Checkpoint) {
	f.releases++
}

// seqGate returns the scripted pass/fail sequence, then passes forever.
type seqGate struct {
	results []bool
	calls   int
}

func (g *seqGate) Run(ctx context.Context) *gates.Result {
	passed := true
	if g.calls < len(g.results) {
		passed = g.results[g.calls]
	}
	g.calls++
	if passed {
		return &gates.Result{Gate: gates.GateTest, Passed: true, Output: "all tests passed"}
	}
	return &gates.Result{
		Gate:   gates.GateTest,
		Output: "1 test failed",
		Error:  errors.New("test command failed: exit status 1"),
	}
}

type recordingAutofixer struct {
	calls   int
	outputs []string
}

func (a *recordingAutofixer) Fix(ctx context.Context, item Item, gateOutput string) error {
	a.calls++
	a.outputs = append(a.outputs, gateOutput)
	return nil
}

func genericItem(file, content, desc string) Item {
	return Item{
		Refactoring: types.Refactoring{
			Type:        types.RefactoringGeneric,
			Description: desc,
			Changes:     []types.FileChange{{File: file, Content: content}},
		},
		Score: 90,
	}
}

func newTestExecutor(t *testing.T, cfg *Config) *Executor {
	t.Helper()
	exec, err := NewExecutor(cfg)
	require.NoError(t, err)
	return exec
}

func TestNewExecutorValidation(t *testing.T) {
	_, err := NewExecutor(nil)
	assert.Error(t, err)

	_, err = NewExecutor(&Config{Gate: &seqGate{}})
	assert.ErrorContains(t, err, "checkpoint store")

	_, err = NewExecutor(&Config{Checkpoints: &fakeCheckpoints{}})
	assert.ErrorContains(t, err, "test gate")

	exec, err := NewExecutor(&Config{Checkpoints: &fakeCheckpoints{}, Gate: &seqGate{}})
	require.NoError(t, err)
	assert.Equal(t, ".", exec.root)
	assert.Equal(t, DefaultMaxAutofixAttempts, exec.maxAttempts)
}

func TestExecuteEmptyBatch(t *testing.T) {
	cps := &fakeCheckpoints{}
	exec := newTestExecutor(t, &Config{Root: t.TempDir(), Checkpoints: cps, Gate: &seqGate{}})

	result, err := exec.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Applied)
	assert.Equal(t, 0, cps.creates, "empty batch should not snapshot the tree")
}

func TestExecuteAppliesBatch(t *testing.T) {
	root := t.TempDir()
	cps := &fakeCheckpoints{}
	gate := &seqGate{}
	exec := newTestExecutor(t, &Config{Root: root, Checkpoints: cps, Gate: gate})

	items := []Item{
		genericItem("a.js", "const a = 1;\n", "rewrite a"),
		genericItem("sub/b.js", "const b = 2;\n", "rewrite b"),
	}
	result, err := exec.Execute(context.Background(), items)
	require.NoError(t, err)

	assert.Len(t, result.Applied, 2)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.False(t, result.RolledBack)

	data, err := os.ReadFile(filepath.Join(root, "sub/b.js"))
	require.NoError(t, err)
	assert.Equal(t, "const b = 2;\n", string(data))

	assert.Equal(t, 1, cps.creates)
	assert.Equal(t, 1, cps.releases)
	assert.Equal(t, 0, cps.rollbacks)
	assert.Equal(t, 2, gate.calls, "gate should run once per applied item")
}

func TestExecuteSkipsDeclined(t *testing.T) {
	root := t.TempDir()
	decider := &confirm.ScriptedDecider{Decisions: []confirm.Decision{confirm.Skip, confirm.Apply}}
	exec := newTestExecutor(t, &Config{
		Root:        root,
		Checkpoints: &fakeCheckpoints{},
		Gate:        &seqGate{},
		Decider:     decider,
	})

	items := []Item{
		genericItem("declined.js", "nope\n", "declined"),
		genericItem("accepted.js", "yes\n", "accepted"),
	}
	result, err := exec.Execute(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "declined", result.Skipped[0].Refactoring.Description)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, "accepted", result.Applied[0].Refactoring.Description)

	_, err = os.Stat(filepath.Join(root, "declined.js"))
	assert.True(t, os.IsNotExist(err), "skipped refactoring must not touch the tree")
	assert.Equal(t, 2, decider.Calls())
}

func TestExecuteGateFailureRollsBackBatch(t *testing.T) {
	root := t.TempDir()
	cps := &fakeCheckpoints{}
	// Item 1 passes; item 2 fails its initial run and both retries.
	gate := &seqGate{results: []bool{true, false, false, false}}
	exec := newTestExecutor(t, &Config{Root: root, Checkpoints: cps, Gate: gate})

	items := []Item{
		genericItem("ok.js", "fine\n", "first"),
		genericItem("bad.js", "broken\n", "second"),
		genericItem("never.js", "unreached\n", "third"),
	}
	result, err := exec.Execute(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, result.Applied, 1)
	assert.Equal(t, "first", result.Applied[0].Refactoring.Description)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "second", result.Failed[0].Refactoring.Description)
	assert.Equal(t, "1 test failed", result.Failed[0].GateOutput)
	assert.Contains(t, result.Failed[0].Error, "test command failed")
	assert.True(t, result.RolledBack)

	// The third item is never attempted after the batch rolls back.
	assert.Equal(t, 4, gate.calls)
	assert.Equal(t, 1, cps.rollbacks)
	assert.Equal(t, 1, cps.releases)
}

func TestExecuteAutofixRetriesThenPasses(t *testing.T) {
	root := t.TempDir()
	gate := &seqGate{results: []bool{false, true}}
	fixer := &recordingAutofixer{}
	exec := newTestExecutor(t, &Config{
		Root:        root,
		Checkpoints: &fakeCheckpoints{},
		Gate:        gate,
		Autofixer:   fixer,
	})

	result, err := exec.Execute(context.Background(), []Item{genericItem("a.js", "x\n", "flaky")})
	require.NoError(t, err)

	require.Len(t, result.Applied, 1)
	assert.False(t, result.RolledBack)
	assert.Equal(t, 2, gate.calls)
	require.Equal(t, 1, fixer.calls)
	assert.Equal(t, "1 test failed", fixer.outputs[0], "autofixer should see the failing gate output")
}

func TestExecuteRollbackFailurePropagates(t *testing.T) {
	cps := &fakeCheckpoints{rollbackErr: fmt.Errorf("checkout failed")}
	exec := newTestExecutor(t, &Config{
		Root:        t.TempDir(),
		Checkpoints: cps,
		Gate:        &seqGate{results: []bool{false, false, false}},
	})

	result, err := exec.Execute(context.Background(), []Item{genericItem("a.js", "x\n", "doomed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roll back")
	assert.False(t, result.RolledBack)
	assert.Equal(t, 0, cps.releases, "checkpoint must survive a failed rollback for manual recovery")
}

func TestExecuteDeciderErrorRollsBack(t *testing.T) {
	cps := &fakeCheckpoints{}
	decider := &confirm.ScriptedDecider{Err: fmt.Errorf("terminal closed")}
	exec := newTestExecutor(t, &Config{
		Root:        t.TempDir(),
		Checkpoints: cps,
		Gate:        &seqGate{},
		Decider:     decider,
	})

	result, err := exec.Execute(context.Background(), []Item{genericItem("a.js", "x\n", "unconfirmed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confirmation failed")
	assert.True(t, result.RolledBack)
	assert.Equal(t, 1, cps.rollbacks)
}

func TestExecutePlanFailureRollsBack(t *testing.T) {
	root := t.TempDir()
	cps := &fakeCheckpoints{}
	gate := &seqGate{}
	exec := newTestExecutor(t, &Config{Root: root, Checkpoints: cps, Gate: gate})

	items := []Item{
		{Refactoring: types.Refactoring{
			Type:      types.RefactoringExtract,
			Source:    "missing.js",
			Name:      "x",
			StartLine: 1,
			EndLine:   2,
			NewFile:   "x.js",
		}},
		genericItem("never.js", "unreached\n", "second"),
	}
	result, err := exec.Execute(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, result.Failed, 1)
	assert.True(t, result.RolledBack)
	assert.Equal(t, 0, gate.calls, "nothing should run after a plan failure")
	assert.Equal(t, 1, cps.rollbacks)
}

func TestExecuteCheckpointFailureStops(t *testing.T) {
	gate := &seqGate{}
	exec := newTestExecutor(t, &Config{
		Root:        t.TempDir(),
		Checkpoints: &fakeCheckpoints{createErr: fmt.Errorf("not a git repository")},
		Gate:        gate,
	})

	_, err := exec.Execute(context.Background(), []Item{genericItem("a.js", "x\n", "blocked")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create checkpoint")
	assert.Equal(t, 0, gate.calls)
}
