package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendtool/mend/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), ".mend", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func genericResult(desc string) types.ItemResult {
	return types.ItemResult{
		Refactoring: types.Refactoring{
			Type:        types.RefactoringGeneric,
			Description: desc,
			Changes:     []types.FileChange{{File: "a.js", Content: "x"}},
		},
	}
}

func TestNewCreatesSchema(t *testing.T) {
	store := newTestStore(t)

	batches, err := store.RecentBatches(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestBeginFinishBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.BeginBatch(ctx, types.ModeAuto)
	require.NoError(t, err)
	assert.Len(t, batch.ID, 8)

	applied := genericResult("extract helpers")
	applied.GateOutput = "all tests passed"
	failed := genericResult("rename fetchData")
	failed.Error = "test gate failed"
	failed.GateOutput = "1 test failed"

	result := &types.ExecutionResult{
		Applied:    []types.ItemResult{applied},
		Skipped:    []types.ItemResult{genericResult("declined change")},
		Failed:     []types.ItemResult{failed},
		RolledBack: true,
	}
	require.NoError(t, store.FinishBatch(ctx, batch, result))

	batches, err := store.RecentBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	got := batches[0]
	assert.Equal(t, batch.ID, got.ID)
	assert.Equal(t, types.ModeAuto, got.Mode)
	assert.Equal(t, 1, got.Applied)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	assert.True(t, got.RolledBack)
	require.NotNil(t, got.FinishedAt)

	items, err := store.BatchItems(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{items[0].Position, items[1].Position, items[2].Position})
	assert.Equal(t, StatusApplied, items[0].Status)
	assert.Equal(t, "extract helpers", items[0].Description)
	assert.Len(t, items[0].GateOutputHash, 12)
	assert.Equal(t, StatusSkipped, items[1].Status)
	assert.Empty(t, items[1].GateOutputHash)
	assert.Equal(t, StatusFailed, items[2].Status)
	assert.Equal(t, "test gate failed", items[2].Error)
}

func TestRecentBatchesOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.BeginBatch(ctx, types.ModeInteractive)
	require.NoError(t, err)
	second, err := store.BeginBatch(ctx, types.ModeAuto)
	require.NoError(t, err)
	third, err := store.BeginBatch(ctx, types.ModeAuto)
	require.NoError(t, err)

	batches, err := store.RecentBatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, third.ID, batches[0].ID)
	assert.Equal(t, second.ID, batches[1].ID)
	_ = first
}

func TestFinishBatchUnknownID(t *testing.T) {
	store := newTestStore(t)

	err := store.FinishBatch(context.Background(),
		&Batch{ID: "missing1"}, &types.ExecutionResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestBatchItemsEmpty(t *testing.T) {
	store := newTestStore(t)

	items, err := store.BatchItems(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPruneBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch, err := store.BeginBatch(ctx, types.ModeAuto)
	require.NoError(t, err)
	require.NoError(t, store.FinishBatch(ctx, batch, &types.ExecutionResult{
		Applied: []types.ItemResult{genericResult("extract helpers")},
	}))
	_, err = store.BeginBatch(ctx, types.ModeInteractive)
	require.NoError(t, err)

	removed, err := store.PruneBatches(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.PruneBatches(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	batches, err := store.RecentBatches(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)

	items, err := store.BatchItems(ctx, batch.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHashOutput(t *testing.T) {
	assert.Empty(t, hashOutput(""))
	assert.Len(t, hashOutput("some output"), 12)
	assert.Equal(t, hashOutput("same"), hashOutput("same"))
	assert.NotEqual(t, hashOutput("one"), hashOutput("two"))
}
