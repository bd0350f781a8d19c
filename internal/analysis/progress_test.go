package analysis

import (
	"testing"
	"time"
)

func TestFormatETA(t *testing.T) {
	tests := []struct {
		seconds  int
		expected string
	}{
		{0, "0s"},
		{45, "45s"},
		{59, "59s"},
		{60, "1m"},
		{150, "2m"},
		{3599, "59m"},
		{3600, "1h 0m"},
		{3725, "1h 2m"},
		{7320, "2h 2m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatETA(tt.seconds); got != tt.expected {
				t.Errorf("FormatETA(%d) = %q, want %q", tt.seconds, got, tt.expected)
			}
		})
	}
}

func TestTrackerPercentage(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(4)

	p := tracker.GetProgress()
	if p.Percentage != 0 || p.Remaining != 4 {
		t.Errorf("fresh tracker: percentage=%d remaining=%d, want 0/4", p.Percentage, p.Remaining)
	}

	tracker.Update("a.go")
	tracker.Update("b.go")

	p = tracker.GetProgress()
	if p.Completed != 2 {
		t.Errorf("completed = %d, want 2", p.Completed)
	}
	if p.Percentage != 50 {
		t.Errorf("percentage = %d, want 50", p.Percentage)
	}
	if p.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", p.Remaining)
	}
}

func TestTrackerETAFromSpeed(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(1000)

	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		tracker.Update("file.go")
	}

	p := tracker.GetProgress()
	if p.ETASeconds <= 0 {
		t.Errorf("ETA should be positive with 997 files remaining, got %d", p.ETASeconds)
	}
	if p.ETA == "" {
		t.Error("ETA string should not be empty")
	}
}

func TestTrackerNoETAWithoutSamples(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(10)

	p := tracker.GetProgress()
	if p.ETASeconds != 0 {
		t.Errorf("ETA without samples = %d, want 0", p.ETASeconds)
	}
	if p.ETA != "0s" {
		t.Errorf("ETA string = %q, want \"0s\"", p.ETA)
	}
}

func TestTrackerCancel(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(5)

	if tracker.Cancelled() {
		t.Error("fresh tracker should not be cancelled")
	}

	tracker.Cancel()
	if !tracker.Cancelled() {
		t.Error("tracker should report cancelled after Cancel")
	}

	// Start resets the flag along with the counters
	tracker.Start(3)
	if tracker.Cancelled() {
		t.Error("Start should clear the cancelled flag")
	}
	if p := tracker.GetProgress(); p.Completed != 0 || p.Total != 3 {
		t.Errorf("Start should reset counters, got %+v", p)
	}
}
