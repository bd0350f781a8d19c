// Package gates runs the quality gate that decides whether an applied
// refactoring sticks: the project's own test suite.
package gates

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// GateType identifies different quality gates
type GateType string

const (
	GateTest GateType = "test"
)

// DefaultTimeout bounds a single gate run.
const DefaultTimeout = 5 * time.Minute

// Result represents the outcome of a quality gate check
type Result struct {
	Gate   GateType
	Passed bool
	Output string
	Error  error
}

// Provider is an interface for running quality gates.
// This allows for pluggable gate implementations (e.g., for testing or custom gates)
type Provider interface {
	// Run executes the gate once and reports the outcome.
	Run(ctx context.Context) *Result
}

// Runner executes the project's test command as the quality gate.
type Runner struct {
	workingDir string
	command    string
	timeout    time.Duration
	provider   Provider
}

// Config holds quality gate runner configuration
type Config struct {
	WorkingDir string        // Directory where the test command executes
	Command    string        // Shell command, e.g. "npm test"
	Timeout    time.Duration // Zero means DefaultTimeout
	Provider   Provider      // Optional: pluggable gate (defaults to built-in)
}

// NewRunner creates a new quality gate runner
func NewRunner(cfg *Config) (*Runner, error) {
	if cfg.Provider == nil && cfg.Command == "" {
		return nil, fmt.Errorf("test command is required")
	}
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = "."
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Runner{
		workingDir: cfg.WorkingDir,
		command:    cfg.Command,
		timeout:    cfg.Timeout,
		provider:   cfg.Provider,
	}, nil
}

// Command returns the configured test command.
func (r *Runner) Command() string {
	return r.command
}

// Run executes the test gate once. The command runs through the shell so
// configured commands can use arguments, globs, and pipes.
func (r *Runner) Run(ctx context.Context) *Result {
	if r.provider != nil {
		return r.provider.Run(ctx)
	}

	result := &Result{Gate: GateTest}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Dir = r.workingDir

	output, err := cmd.CombinedOutput()
	result.Output = string(output)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result.Error = fmt.Errorf("test command timed out after %s", r.timeout)
		} else {
			result.Error = fmt.Errorf("test command failed: %w", err)
		}
		return result
	}

	result.Passed = true
	return result
}
