package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// defaultConfigYAML is the commented starter file written by `mend init`.
// It spells out every default so users can tune by editing in place.
const defaultConfigYAML = `# mend configuration
#
# Every setting below shows its default. Delete anything you don't
# want to override; mend fills in defaults for missing fields.

# How confirmed refactorings are executed:
#   interactive  - prompt before each change
#   auto         - apply changes scoring at or above auto_threshold
#   analyze-only - report findings, never modify files
mode: interactive

# Minimum priority score (0-100) for unprompted application in auto mode.
auto_threshold: 80

# Command that runs your test suite. Leave unset to auto-detect from
# the project layout (package.json, go.mod, pytest.ini, ...).
# test_command: npm test

# Seconds before a test run is abandoned.
test_timeout_seconds: 300

# Flag functions whose cyclomatic complexity exceeds this.
max_complexity: 10

# Flag functions longer than this many lines.
max_function_lines: 50

# Smallest run of matching lines reported as duplication.
min_duplicate_lines: 5

# File extensions to analyze. Defaults to common JS/TS, Go, and Python.
# extensions: [".js", ".ts", ".go", ".py"]

# Extra directory names to skip (node_modules, vendor, .git and
# friends are always skipped).
# skip_dirs: ["generated"]

# Anthropic model for semantic analysis and refactoring proposals.
# Also settable via MEND_MODEL.
# model: claude-sonnet-4-5-20250929

# Repair retries before a failed test gate rolls the batch back.
max_autofix_attempts: 2

# Most refactorings applied in a single run.
max_batch_size: 5
`

// EnsureDefault writes the starter config under root if none exists.
// It reports whether a file was created.
func EnsureDefault(root string) (bool, error) {
	path := Path(root)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
