package usage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerCounters(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.RecordAnalysis(10, 4)
	tracker.RecordAnalysis(2, 1)
	tracker.RecordModelCall(1000, 500)
	tracker.RecordModelCall(2000, 0)

	state := tracker.Snapshot()
	assert.Equal(t, int64(12), state.FilesAnalyzed)
	assert.Equal(t, int64(5), state.CacheHits)
	assert.Equal(t, int64(2), state.ModelCalls)
	assert.Equal(t, int64(3000), state.InputTokens)
	assert.Equal(t, int64(500), state.OutputTokens)
	assert.InDelta(t, 3000*3.0/1e6+500*15.0/1e6, state.Cost, 1e-9)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestTrackerConcurrentRecording(t *testing.T) {
	tracker := NewTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordModelCall(100, 10)
			tracker.RecordAnalysis(1, 0)
		}()
	}
	wg.Wait()

	state := tracker.Snapshot()
	assert.Equal(t, int64(20), state.ModelCalls)
	assert.Equal(t, int64(2000), state.InputTokens)
	assert.Equal(t, int64(20), state.FilesAnalyzed)
}

func TestTrackerFlushWithoutRepository(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.RecordModelCall(1, 1)
	require.NoError(t, tracker.Flush())
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mend", "usage.json")
	repo := NewFileRepository(path)

	tracker := NewTracker(repo)
	tracker.RecordAnalysis(3, 1)
	tracker.RecordModelCall(500, 200)
	require.NoError(t, tracker.Flush())

	resumed := NewTracker(repo)
	state := resumed.Snapshot()
	assert.Equal(t, int64(3), state.FilesAnalyzed)
	assert.Equal(t, int64(1), state.CacheHits)
	assert.Equal(t, int64(500), state.InputTokens)
	assert.Equal(t, int64(200), state.OutputTokens)
}

func TestFileRepositoryMissingFile(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "absent.json"))
	state, err := repo.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	repo := NewFileRepository(path)
	_, err := repo.Load()
	assert.Error(t, err)

	// A corrupt file must not block a new tracker.
	tracker := NewTracker(repo)
	assert.Equal(t, int64(0), tracker.Snapshot().ModelCalls)
}
