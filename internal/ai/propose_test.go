package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/mendtool/mend/internal/types"
)

func scoredOpp(oppType types.OpportunityType, line, endLine int, total float64) types.ScoredOpportunity {
	return types.ScoredOpportunity{
		Opportunity: types.Opportunity{
			Type:        oppType,
			File:        "src/a.js",
			Line:        line,
			EndLine:     endLine,
			Description: "Function 'route' has cyclomatic complexity 15 (threshold 10)",
		},
		Score: types.Score{Total: total},
	}
}

func TestBuildProposePrompt(t *testing.T) {
	file := types.SourceFile{Path: "src/a.js", Content: "function route() {}\n"}
	prompt := buildProposePrompt(scoredOpp(types.OpportunityComplexity, 10, 40, 85), file)

	for _, want := range []string{
		"FILE: src/a.js",
		"complexity, impact 85",
		"lines 10-40",
		"function route() {}",
		`"generic"`,
		`"extract"`,
		"ENTIRE file content",
		"ONLY raw JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildProposePromptSingleLine(t *testing.T) {
	file := types.SourceFile{Path: "src/a.js", Content: "x\n"}
	prompt := buildProposePrompt(scoredOpp(types.OpportunitySemantic, 7, 0, 60), file)

	if !strings.Contains(prompt, "at line 7") {
		t.Error("single-line opportunity should render as a single line reference")
	}
	if strings.Contains(prompt, "7-0") {
		t.Error("zero end line must not render as a range")
	}
}

func TestTouchesFile(t *testing.T) {
	changes := []types.FileChange{{File: "a.js"}, {File: "b.js"}}
	if !touchesFile(changes, "b.js") {
		t.Error("expected b.js to be touched")
	}
	if touchesFile(changes, "c.js") {
		t.Error("c.js is not in the change set")
	}
}

func TestProposeRefactoringRejectsLargeFile(t *testing.T) {
	a, err := NewAnalyzer(&Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewAnalyzer failed: %v", err)
	}

	file := types.SourceFile{Path: "big.js", Content: strings.Repeat("x", maxProposeBytes+1)}
	_, err = a.ProposeRefactoring(context.Background(), scoredOpp(types.OpportunityLength, 1, 0, 90), file)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("expected size rejection before any model call, got %v", err)
	}
}
