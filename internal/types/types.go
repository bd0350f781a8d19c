// Package types defines the core data model shared by the analysis,
// backlog, and execution layers.
package types

import (
	"fmt"
	"time"
)

// OpportunityType identifies what kind of refactor opportunity a detector emitted.
type OpportunityType string

const (
	// OpportunityComplexity flags a function whose cyclomatic complexity is over threshold
	OpportunityComplexity OpportunityType = "complexity"
	// OpportunityLength flags a function that has grown past the line-count threshold
	OpportunityLength OpportunityType = "length"
	// OpportunityDuplication flags a duplicated code block shared by 2+ locations
	OpportunityDuplication OpportunityType = "duplication"
	// OpportunitySemantic flags an issue raised by model-backed analysis
	OpportunitySemantic OpportunityType = "semantic"
)

// IsValid checks if the opportunity type is one of the known variants
func (t OpportunityType) IsValid() bool {
	switch t {
	case OpportunityComplexity, OpportunityLength, OpportunityDuplication, OpportunitySemantic:
		return true
	}
	return false
}

// Opportunity is a detected, unscored candidate for refactoring.
type Opportunity struct {
	Type        OpportunityType    `json:"type"`
	File        string             `json:"file"`
	Line        int                `json:"line"`
	EndLine     int                `json:"end_line,omitempty"` // 0 when the opportunity is a single line
	Description string             `json:"description"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Validate checks that required fields are present and coherent
func (o *Opportunity) Validate() error {
	if !o.Type.IsValid() {
		return fmt.Errorf("invalid opportunity type: %s", o.Type)
	}
	if o.File == "" {
		return fmt.Errorf("opportunity file is required")
	}
	if o.Line < 1 {
		return fmt.Errorf("opportunity line must be >= 1, got %d", o.Line)
	}
	if o.EndLine != 0 && o.EndLine < o.Line {
		return fmt.Errorf("opportunity end line %d is before start line %d", o.EndLine, o.Line)
	}
	if o.Description == "" {
		return fmt.Errorf("opportunity description is required")
	}
	return nil
}

// Key returns the file:line identity used for backlog deduplication
func (o *Opportunity) Key() string {
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// Score is the impact assessment for one opportunity. Total drives
// prioritization; Dimensions carries the per-factor breakdown for reports.
type Score struct {
	Total      float64            `json:"total"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
}

// ScoredOpportunity pairs an opportunity with its impact score.
// Created by the orchestrator, consumed by the backlog and the executor.
type ScoredOpportunity struct {
	Opportunity Opportunity `json:"opportunity"`
	Score       Score       `json:"score"`
}

// RefactoringType identifies which apply strategy a refactoring uses.
type RefactoringType string

const (
	// RefactoringExtract slices a line range into a new unit and replaces
	// the original range with a reference to it
	RefactoringExtract RefactoringType = "extract"
	// RefactoringRename substitutes a literal name across a set of files
	RefactoringRename RefactoringType = "rename"
	// RefactoringSplit writes each target file verbatim
	RefactoringSplit RefactoringType = "split"
	// RefactoringGeneric applies a list of explicit file-content changes
	RefactoringGeneric RefactoringType = "generic"
)

// IsValid checks if the refactoring type is one of the known variants
func (t RefactoringType) IsValid() bool {
	switch t {
	case RefactoringExtract, RefactoringRename, RefactoringSplit, RefactoringGeneric:
		return true
	}
	return false
}

// FileChange is one explicit file rewrite within a generic refactoring.
type FileChange struct {
	File    string `json:"file"`
	Content string `json:"content"`
}

// Refactoring is a tagged operation the executor can apply. Only the field
// group matching Type is meaningful; Validate enforces the pairing.
type Refactoring struct {
	Type        RefactoringType `json:"type"`
	Description string          `json:"description,omitempty"`

	// extract
	Source    string `json:"source,omitempty"`
	Name      string `json:"name,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	NewFile   string `json:"new_file,omitempty"`

	// rename
	OldName string   `json:"old_name,omitempty"`
	NewName string   `json:"new_name,omitempty"`
	Files   []string `json:"files,omitempty"`

	// split reuses Source for the file being broken up
	Targets map[string]string `json:"targets,omitempty"`

	// generic
	Changes []FileChange `json:"changes,omitempty"`
}

// Validate checks that the fields required by the refactoring's type are set
func (r *Refactoring) Validate() error {
	switch r.Type {
	case RefactoringExtract:
		if r.Source == "" {
			return fmt.Errorf("extract refactoring requires a source file")
		}
		if r.Name == "" {
			return fmt.Errorf("extract refactoring requires a name for the new unit")
		}
		if r.StartLine < 1 {
			return fmt.Errorf("extract start line must be >= 1, got %d", r.StartLine)
		}
		if r.EndLine < r.StartLine {
			return fmt.Errorf("extract end line %d is before start line %d", r.EndLine, r.StartLine)
		}
		if r.NewFile == "" {
			return fmt.Errorf("extract refactoring requires a destination file")
		}
	case RefactoringRename:
		if r.OldName == "" || r.NewName == "" {
			return fmt.Errorf("rename refactoring requires both old and new names")
		}
		if r.OldName == r.NewName {
			return fmt.Errorf("rename refactoring old and new names are identical: %s", r.OldName)
		}
		if len(r.Files) == 0 {
			return fmt.Errorf("rename refactoring requires at least one file")
		}
	case RefactoringSplit:
		if r.Source == "" {
			return fmt.Errorf("split refactoring requires a source file")
		}
		if len(r.Targets) == 0 {
			return fmt.Errorf("split refactoring requires at least one target file")
		}
	case RefactoringGeneric:
		if len(r.Changes) == 0 {
			return fmt.Errorf("generic refactoring requires at least one change")
		}
		for i, c := range r.Changes {
			if c.File == "" {
				return fmt.Errorf("generic refactoring change %d has no file", i)
			}
		}
	default:
		return fmt.Errorf("invalid refactoring type: %s", r.Type)
	}
	return nil
}

// Target returns a short human-readable description of what the refactoring
// touches, for prompts, logs, and history rows.
func (r *Refactoring) Target() string {
	switch r.Type {
	case RefactoringExtract:
		return fmt.Sprintf("%s:%d-%d -> %s", r.Source, r.StartLine, r.EndLine, r.NewFile)
	case RefactoringRename:
		return fmt.Sprintf("%s -> %s (%d files)", r.OldName, r.NewName, len(r.Files))
	case RefactoringSplit:
		return fmt.Sprintf("%s -> %d targets", r.Source, len(r.Targets))
	case RefactoringGeneric:
		return fmt.Sprintf("%d file changes", len(r.Changes))
	}
	return string(r.Type)
}

// ItemResult records the outcome of one refactoring within a batch.
type ItemResult struct {
	Refactoring Refactoring `json:"refactoring"`
	Error       string      `json:"error,omitempty"`
	GateOutput  string      `json:"gate_output,omitempty"`
}

// ExecutionResult is the outcome of one executor batch. It is immutable once
// returned: Applied items passed the test gate, Skipped items were declined,
// Failed items exhausted their retries, and RolledBack reports whether the
// whole batch was restored to its checkpoint.
type ExecutionResult struct {
	Applied    []ItemResult `json:"applied"`
	Skipped    []ItemResult `json:"skipped"`
	Failed     []ItemResult `json:"failed"`
	RolledBack bool         `json:"rolled_back"`
}

// Checkpoint is an opaque working-tree snapshot handle. The executor only
// creates it and hands it back for rollback; it never inspects Ref.
type Checkpoint struct {
	ID        string    `json:"id"`
	Ref       string    `json:"ref"`
	CreatedAt time.Time `json:"created_at"`
}

// Mode selects how the orchestrator disposes of scored opportunities.
type Mode string

const (
	// ModeInteractive asks before applying each refactoring
	ModeInteractive Mode = "interactive"
	// ModeAuto applies only items scoring at or above the auto threshold
	ModeAuto Mode = "auto"
	// ModeAnalyzeOnly reports without applying anything
	ModeAnalyzeOnly Mode = "analyze-only"
)

// IsValid checks if the mode is one of the known variants
func (m Mode) IsValid() bool {
	switch m {
	case ModeInteractive, ModeAuto, ModeAnalyzeOnly:
		return true
	}
	return false
}

// SourceFile is one file handed to the analyzers: path plus full content.
type SourceFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FunctionInfo describes one function found by AST analysis.
type FunctionInfo struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	Complexity int    `json:"complexity"`
	Lines      int    `json:"lines"`
}

// FileAnalysis is the AST-level result for a single file.
type FileAnalysis struct {
	Functions []FunctionInfo `json:"functions"`
}

// SemanticIssue is one problem flagged by model-backed analysis.
type SemanticIssue struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}
