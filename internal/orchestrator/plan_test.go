package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/mendtool/mend/internal/types"
)

func scoredOpportunity(typ types.OpportunityType, file string, line, endLine int, desc string) types.ScoredOpportunity {
	return types.ScoredOpportunity{
		Opportunity: types.Opportunity{
			Type:        typ,
			File:        file,
			Line:        line,
			EndLine:     endLine,
			Description: desc,
		},
		Score: types.Score{Total: 70},
	}
}

func TestHeuristicPlannerExtractsNamedFunction(t *testing.T) {
	planner := &HeuristicPlanner{}
	opp := scoredOpportunity(types.OpportunityComplexity, "src/util.js", 10, 40,
		"Function 'processOrder' has cyclomatic complexity 14 (threshold 10)")

	ref, err := planner.ProposeRefactoring(context.Background(), opp, types.SourceFile{Path: "src/util.js"})
	if err != nil {
		t.Fatalf("ProposeRefactoring: %v", err)
	}

	if ref.Type != types.RefactoringExtract {
		t.Errorf("type = %s, want extract", ref.Type)
	}
	if ref.Source != "src/util.js" || ref.StartLine != 10 || ref.EndLine != 40 {
		t.Errorf("range = %s:%d-%d, want src/util.js:10-40", ref.Source, ref.StartLine, ref.EndLine)
	}
	if ref.Name != "processOrder" {
		t.Errorf("name = %q, want processOrder", ref.Name)
	}
	if ref.NewFile != "src/util_processOrder.js" {
		t.Errorf("new file = %q, want src/util_processOrder.js", ref.NewFile)
	}
}

func TestHeuristicPlannerDuplicationFallbackName(t *testing.T) {
	planner := &HeuristicPlanner{}
	opp := scoredOpportunity(types.OpportunityDuplication, "a.js", 3, 9,
		"7 duplicated lines, also at b.js:3")

	ref, err := planner.ProposeRefactoring(context.Background(), opp, types.SourceFile{Path: "a.js"})
	if err != nil {
		t.Fatalf("ProposeRefactoring: %v", err)
	}
	if ref.Name != "sharedBlock" {
		t.Errorf("name = %q, want sharedBlock", ref.Name)
	}
	if ref.NewFile != "a_sharedBlock.js" {
		t.Errorf("new file = %q, want a_sharedBlock.js", ref.NewFile)
	}
}

func TestHeuristicPlannerNoPlanForSemantic(t *testing.T) {
	planner := &HeuristicPlanner{}
	opp := scoredOpportunity(types.OpportunitySemantic, "a.js", 5, 0, "Possible nil dereference")

	_, err := planner.ProposeRefactoring(context.Background(), opp, types.SourceFile{Path: "a.js"})
	if !errors.Is(err, ErrNoPlan) {
		t.Errorf("expected ErrNoPlan, got %v", err)
	}
}

func TestHeuristicPlannerNoPlanForSingleLine(t *testing.T) {
	planner := &HeuristicPlanner{}
	opp := scoredOpportunity(types.OpportunityComplexity, "a.js", 5, 0, "Function 'f' has cyclomatic complexity 12 (threshold 10)")

	_, err := planner.ProposeRefactoring(context.Background(), opp, types.SourceFile{Path: "a.js"})
	if !errors.Is(err, ErrNoPlan) {
		t.Errorf("expected ErrNoPlan, got %v", err)
	}
}

func TestExtractTarget(t *testing.T) {
	tests := []struct {
		source string
		name   string
		want   string
	}{
		{"util.js", "processOrder", "util_processOrder.js"},
		{"src/util.js", "processOrder", "src/util_processOrder.js"},
		{"src/deep/handler.py", "parse", "src/deep/handler_parse.py"},
		{"noext", "block", "noext_block"},
	}
	for _, tt := range tests {
		if got := extractTarget(tt.source, tt.name); got != tt.want {
			t.Errorf("extractTarget(%q, %q) = %q, want %q", tt.source, tt.name, got, tt.want)
		}
	}
}

func TestTouchedPaths(t *testing.T) {
	tests := []struct {
		name string
		ref  types.Refactoring
		want []string
	}{
		{
			"extract",
			types.Refactoring{Type: types.RefactoringExtract, Source: "b.js", NewFile: "a.js"},
			[]string{"a.js", "b.js"},
		},
		{
			"rename",
			types.Refactoring{Type: types.RefactoringRename, Files: []string{"x.js", "y.js"}},
			[]string{"x.js", "y.js"},
		},
		{
			"split includes source",
			types.Refactoring{Type: types.RefactoringSplit, Source: "big.js", Targets: map[string]string{"part.js": ""}},
			[]string{"big.js", "part.js"},
		},
		{
			"generic dedupes",
			types.Refactoring{Type: types.RefactoringGeneric, Changes: []types.FileChange{
				{File: "m.js"}, {File: "m.js"}, {File: "n.js"},
			}},
			[]string{"m.js", "n.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := touchedPaths(tt.ref)
			if len(got) != len(tt.want) {
				t.Fatalf("paths = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("paths = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSemanticOpportunities(t *testing.T) {
	issues := []types.SemanticIssue{
		{Line: 3, Description: "Mutates shared state", Suggestion: "copy before writing"},
		{Line: 8, Description: "Missing error check"},
	}

	opps := semanticOpportunities("src/app.js", issues)
	if len(opps) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(opps))
	}

	if opps[0].Type != types.OpportunitySemantic || opps[0].File != "src/app.js" || opps[0].Line != 3 {
		t.Errorf("unexpected first opportunity: %+v", opps[0])
	}
	if want := "Mutates shared state. Suggested: copy before writing"; opps[0].Description != want {
		t.Errorf("description = %q, want %q", opps[0].Description, want)
	}
	if opps[1].Description != "Missing error check" {
		t.Errorf("description = %q, want bare description", opps[1].Description)
	}
}
