package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/mendtool/mend/internal/types"
)

func fixtureRefactoring() types.Refactoring {
	return types.Refactoring{
		Type:        types.RefactoringGeneric,
		Description: "Inline duplicated branch",
		Changes:     []types.FileChange{{File: "src/app.js", Content: "new"}},
	}
}

func TestBuildFixPrompt(t *testing.T) {
	ref := fixtureRefactoring()
	files := []types.SourceFile{
		{Path: "src/app.js", Content: "const x = 1;\n"},
		{Path: "src/util.js", Content: "export const y = 2;\n"},
	}

	prompt := buildFixPrompt(ref, "Error: x is not defined\n  at app.js:1", files)

	for _, want := range []string{
		"Inline duplicated branch",
		"x is not defined",
		"=== src/app.js ===",
		"=== src/util.js ===",
		"const x = 1;",
		"ONLY raw JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildFixPromptTruncatesGateOutput(t *testing.T) {
	longOutput := strings.Repeat("PASS module.test.js\n", 1000) + "FAIL app.test.js: boom"

	prompt := buildFixPrompt(fixtureRefactoring(), longOutput, []types.SourceFile{{Path: "a.js"}})

	if !strings.Contains(prompt, "[...truncated...]") {
		t.Error("prompt should mark truncated test output")
	}
	// The failing tail must survive truncation.
	if !strings.Contains(prompt, "FAIL app.test.js: boom") {
		t.Error("prompt lost the failure at the end of the output")
	}
}

func TestProposeFixRejectsEmptyFileSet(t *testing.T) {
	analyzer, err := NewAnalyzer(&Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	_, err = analyzer.ProposeFix(context.Background(), fixtureRefactoring(), "output", nil)
	if err == nil || !strings.Contains(err.Error(), "no files to repair") {
		t.Errorf("expected no-files error, got %v", err)
	}
}

func TestProposeFixRejectsOversizedContent(t *testing.T) {
	analyzer, err := NewAnalyzer(&Config{APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	big := types.SourceFile{Path: "a.js", Content: strings.Repeat("x", maxProposeBytes+1)}
	_, err = analyzer.ProposeFix(context.Background(), fixtureRefactoring(), "output", []types.SourceFile{big})
	if err == nil || !strings.Contains(err.Error(), "too much content") {
		t.Errorf("expected size refusal, got %v", err)
	}
}
