// Package config loads and validates mend's project configuration.
//
// Settings live in .mend/config.yaml at the repository root. A missing
// file is not an error: every field has a sensible default, so mend
// works out of the box and the file only records deviations. Two
// environment variables override the file: ANTHROPIC_API_KEY supplies
// the model credential (never persisted to disk) and MEND_MODEL
// overrides the configured model.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateDir is the directory under the repository root where mend keeps
// its configuration and working state.
const StateDir = ".mend"

const (
	configFile  = "config.yaml"
	cacheFile   = "cache.json"
	historyFile = "history.db"
	backlogFile = "refactor-candidates.md"
	usageFile   = "usage.json"
)

// Config holds every tunable mend reads. Zero values mean "use the
// default"; Load fills them in before returning.
type Config struct {
	// Mode selects how confirmed opportunities are executed:
	// "interactive" (prompt per item), "auto" (apply above the
	// threshold), or "analyze-only" (report, change nothing).
	Mode string `yaml:"mode"`

	// AutoThreshold is the minimum priority score (0-100) an
	// opportunity needs before auto mode will apply it unprompted.
	AutoThreshold float64 `yaml:"auto_threshold"`

	// TestCommand runs the project's test suite as the safety gate.
	// Empty means detect one from the project layout (package.json,
	// go.mod, pytest.ini and friends).
	TestCommand string `yaml:"test_command,omitempty"`

	// TestTimeoutSeconds bounds a single gate run.
	TestTimeoutSeconds int `yaml:"test_timeout_seconds"`

	// MaxComplexity flags functions whose cyclomatic complexity
	// exceeds it.
	MaxComplexity int `yaml:"max_complexity"`

	// MaxFunctionLines flags functions longer than this many lines.
	MaxFunctionLines int `yaml:"max_function_lines"`

	// MinDuplicateLines is the smallest run of matching lines the
	// duplication detector reports.
	MinDuplicateLines int `yaml:"min_duplicate_lines"`

	// Extensions limits analysis to files with these suffixes.
	Extensions []string `yaml:"extensions,omitempty"`

	// SkipDirs are directory names the scanner never descends into,
	// in addition to the built-in set.
	SkipDirs []string `yaml:"skip_dirs,omitempty"`

	// Model names the Anthropic model used for semantic analysis and
	// refactoring proposals. Empty falls back to MEND_MODEL or the
	// built-in default.
	Model string `yaml:"model,omitempty"`

	// MaxAutofixAttempts caps gate-failure repair retries per item.
	MaxAutofixAttempts int `yaml:"max_autofix_attempts"`

	// MaxBatchSize caps how many opportunities one run will execute.
	MaxBatchSize int `yaml:"max_batch_size"`

	// APIKey is read from ANTHROPIC_API_KEY. It is never written to
	// the config file.
	APIKey string `yaml:"-"`
}

// DefaultConfig returns the configuration mend runs with when
// .mend/config.yaml is absent.
func DefaultConfig() *Config {
	return &Config{
		Mode:               "interactive",
		AutoThreshold:      80,
		TestTimeoutSeconds: 300,
		MaxComplexity:      10,
		MaxFunctionLines:   50,
		MinDuplicateLines:  5,
		MaxAutofixAttempts: 2,
		MaxBatchSize:       5,
	}
}

// Load reads .mend/config.yaml under root, fills defaults for unset
// fields, applies environment overrides, and validates the result. A
// missing file yields the defaults.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults restores defaults for fields the file set to zero.
// Explicit zeros and "unset" are indistinguishable after unmarshal, so
// zero always means default.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.AutoThreshold == 0 {
		c.AutoThreshold = def.AutoThreshold
	}
	if c.TestTimeoutSeconds == 0 {
		c.TestTimeoutSeconds = def.TestTimeoutSeconds
	}
	if c.MaxComplexity == 0 {
		c.MaxComplexity = def.MaxComplexity
	}
	if c.MaxFunctionLines == 0 {
		c.MaxFunctionLines = def.MaxFunctionLines
	}
	if c.MinDuplicateLines == 0 {
		c.MinDuplicateLines = def.MinDuplicateLines
	}
	if c.MaxAutofixAttempts == 0 {
		c.MaxAutofixAttempts = def.MaxAutofixAttempts
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = def.MaxBatchSize
	}
}

// applyEnv layers environment overrides on top of the file.
func (c *Config) applyEnv() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.APIKey = key
	}
	if model := os.Getenv("MEND_MODEL"); model != "" {
		c.Model = model
	}
	if auto := os.Getenv("MEND_AUTO_APPROVE"); auto == "1" || strings.EqualFold(auto, "true") {
		c.Mode = "auto"
	}
}

// normalize cleans up list fields so downstream comparisons are exact:
// extensions are lowercased and dot-prefixed, blank entries dropped.
// Nil stays nil so "unset" survives for callers that fall back to the
// scanner's built-in lists.
func (c *Config) normalize() {
	if len(c.Extensions) > 0 {
		exts := make([]string, 0, len(c.Extensions))
		for _, ext := range c.Extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			exts = append(exts, ext)
		}
		c.Extensions = exts
	}

	if len(c.SkipDirs) > 0 {
		dirs := make([]string, 0, len(c.SkipDirs))
		for _, dir := range c.SkipDirs {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				continue
			}
			dirs = append(dirs, dir)
		}
		c.SkipDirs = dirs
	}
}

// Validate checks that every field is inside its working range.
func (c *Config) Validate() error {
	switch c.Mode {
	case "interactive", "auto", "analyze-only":
	default:
		return fmt.Errorf("mode must be interactive, auto, or analyze-only (got %q)", c.Mode)
	}
	if c.AutoThreshold < 0 || c.AutoThreshold > 100 {
		return fmt.Errorf("auto_threshold must be between 0 and 100 (got %g)", c.AutoThreshold)
	}
	if c.TestTimeoutSeconds < 1 {
		return fmt.Errorf("test_timeout_seconds must be at least 1 (got %d)", c.TestTimeoutSeconds)
	}
	if c.MaxComplexity < 1 {
		return fmt.Errorf("max_complexity must be at least 1 (got %d)", c.MaxComplexity)
	}
	if c.MaxFunctionLines < 1 {
		return fmt.Errorf("max_function_lines must be at least 1 (got %d)", c.MaxFunctionLines)
	}
	if c.MinDuplicateLines < 2 {
		return fmt.Errorf("min_duplicate_lines must be at least 2 (got %d)", c.MinDuplicateLines)
	}
	if c.MaxAutofixAttempts < 0 {
		return fmt.Errorf("max_autofix_attempts must not be negative (got %d)", c.MaxAutofixAttempts)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be at least 1 (got %d)", c.MaxBatchSize)
	}
	return nil
}

// Path returns the config file location under root.
func Path(root string) string {
	return filepath.Join(root, StateDir, configFile)
}

// CachePath returns the analysis cache location under root.
func CachePath(root string) string {
	return filepath.Join(root, StateDir, cacheFile)
}

// HistoryPath returns the execution history database location under root.
func HistoryPath(root string) string {
	return filepath.Join(root, StateDir, historyFile)
}

// BacklogPath returns the markdown backlog location under root.
func BacklogPath(root string) string {
	return filepath.Join(root, StateDir, backlogFile)
}

// UsagePath returns the usage tracking state location under root.
func UsagePath(root string) string {
	return filepath.Join(root, StateDir, usageFile)
}
