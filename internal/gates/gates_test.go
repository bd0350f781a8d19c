package gates

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNewRunnerRequiresCommand(t *testing.T) {
	_, err := NewRunner(&Config{})
	if err == nil {
		t.Fatal("expected error for missing command")
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r, err := NewRunner(&Config{Command: "true"})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	if r.workingDir != "." {
		t.Errorf("workingDir = %q, want \".\"", r.workingDir)
	}
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultTimeout)
	}
}

func TestRunPassingGate(t *testing.T) {
	r, err := NewRunner(&Config{Command: "echo all tests passed", WorkingDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	result := r.Run(context.Background())
	if !result.Passed {
		t.Fatalf("expected gate to pass, got error: %v", result.Error)
	}
	if result.Gate != GateTest {
		t.Errorf("Gate = %s, want %s", result.Gate, GateTest)
	}
	if !strings.Contains(result.Output, "all tests passed") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestRunFailingGate(t *testing.T) {
	r, err := NewRunner(&Config{Command: "echo assertion failed; exit 1", WorkingDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	result := r.Run(context.Background())
	if result.Passed {
		t.Fatal("expected gate to fail")
	}
	if result.Error == nil {
		t.Fatal("expected error for failing command")
	}
	if !strings.Contains(result.Output, "assertion failed") {
		t.Errorf("failure output should be captured, got %q", result.Output)
	}
}

func TestRunTimeout(t *testing.T) {
	r, err := NewRunner(&Config{
		Command:    "sleep 5",
		WorkingDir: t.TempDir(),
		Timeout:    50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	result := r.Run(context.Background())
	if result.Passed {
		t.Fatal("expected timed-out gate to fail")
	}
	if result.Error == nil || !strings.Contains(result.Error.Error(), "timed out") {
		t.Errorf("expected timeout error, got %v", result.Error)
	}
}

type stubProvider struct {
	result *Result
	calls  int
}

func (s *stubProvider) Run(ctx context.Context) *Result {
	s.calls++
	return s.result
}

func TestRunUsesProvider(t *testing.T) {
	stub := &stubProvider{result: &Result{Gate: GateTest, Passed: true, Output: "stubbed"}}
	r, err := NewRunner(&Config{Provider: stub})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}

	result := r.Run(context.Background())
	if stub.calls != 1 {
		t.Errorf("provider calls = %d, want 1", stub.calls)
	}
	if !result.Passed || result.Output != "stubbed" {
		t.Errorf("result = %+v", result)
	}
}
