package ai

import (
	"strings"
	"testing"

	"github.com/mendtool/mend/internal/types"
)

func TestBuildSemanticPrompt(t *testing.T) {
	lines := []string{"function a() {", "  return 1;", "}"}
	prompt := buildSemanticPrompt("src/a.js", lines)

	for _, want := range []string{
		"FILE: src/a.js",
		"   1| function a() {",
		"   3| }",
		`"issues"`,
		"ONLY raw JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "only the first") {
		t.Error("short file should not carry a truncation note")
	}
}

func TestBuildSemanticPromptTruncatesLongFiles(t *testing.T) {
	lines := make([]string, maxPromptLines+50)
	for i := range lines {
		lines[i] = "x = 1"
	}
	prompt := buildSemanticPrompt("big.py", lines)

	if !strings.Contains(prompt, "only the first") {
		t.Error("expected truncation note for oversized file")
	}
	if strings.Contains(prompt, " 801| ") {
		t.Error("lines past the cap should not appear in the prompt")
	}
}

func TestFilterIssues(t *testing.T) {
	issues := []types.SemanticIssue{
		{Line: 3, Description: "good issue", Suggestion: "fix it"},
		{Line: 0, Description: "line too small"},
		{Line: 11, Description: "line past end of file"},
		{Line: 5, Description: "   "},
		{Line: 10, Description: "boundary line is valid"},
	}

	kept := filterIssues("a.js", 10, issues)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept issues, got %d: %+v", len(kept), kept)
	}
	if kept[0].Line != 3 || kept[1].Line != 10 {
		t.Errorf("wrong issues kept: %+v", kept)
	}
}

func TestFilterIssuesEmpty(t *testing.T) {
	if kept := filterIssues("a.js", 5, nil); len(kept) != 0 {
		t.Errorf("expected no issues, got %+v", kept)
	}
}
