package analysis

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// speedWindow is how many per-file speed samples feed the rolling average
const speedWindow = 10

// Tracker reports completion and ETA for one analysis pass. It has a single
// owner per run; Start resets all state. Cancel may be called from another
// goroutine (a signal handler); the driving loop checks it between files.
type Tracker struct {
	mu        sync.Mutex
	total     int
	completed int
	startTime time.Time
	lastTime  time.Time
	speeds    []float64
	cancelled bool
}

// NewTracker creates an idle tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Progress is a point-in-time view of a pass.
type Progress struct {
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Percentage int    `json:"percentage"`
	Remaining  int    `json:"remaining"`
	ETASeconds int    `json:"eta_seconds"`
	ETA        string `json:"eta"`
}

// Start resets all counters and the speed window for a run over total files.
func (t *Tracker) Start(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.total = total
	t.completed = 0
	t.startTime = now
	t.lastTime = now
	t.speeds = t.speeds[:0]
	t.cancelled = false
}

// Update records one completed file and its instantaneous speed.
func (t *Tracker) Update(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.completed++

	// Instantaneous throughput in files/second since the previous update.
	// Sub-resolution elapsed times (cache hits) contribute no sample.
	elapsed := now.Sub(t.lastTime).Seconds()
	if elapsed > 0 {
		t.speeds = append(t.speeds, 1.0/elapsed)
		if len(t.speeds) > speedWindow {
			t.speeds = t.speeds[len(t.speeds)-speedWindow:]
		}
	}
	t.lastTime = now
}

// GetProgress derives percentage, remaining count, and ETA from the rolling
// average speed.
func (t *Tracker) GetProgress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.total - t.completed
	if remaining < 0 {
		remaining = 0
	}

	pct := 0
	if t.total > 0 {
		pct = int(math.Round(float64(t.completed) / float64(t.total) * 100))
	}

	etaSecs := 0
	if remaining > 0 {
		if avg := t.averageSpeedLocked(); avg > 0 {
			etaSecs = int(math.Round(float64(remaining) / avg))
		}
	}

	return Progress{
		Total:      t.total,
		Completed:  t.completed,
		Percentage: pct,
		Remaining:  remaining,
		ETASeconds: etaSecs,
		ETA:        FormatETA(etaSecs),
	}
}

// averageSpeedLocked returns the rolling average speed. Must be called with
// mu held.
func (t *Tracker) averageSpeedLocked() float64 {
	if len(t.speeds) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range t.speeds {
		sum += s
	}
	return sum / float64(len(t.speeds))
}

// Cancel requests an early stop. It takes effect between files, never
// mid-file, and never affects already-completed work.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

// Cancelled reports whether Cancel was called since the last Start.
func (t *Tracker) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// FormatETA renders a second count as "Ns", "Nm", or "Nh Nm".
func FormatETA(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm", seconds/60)
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}
