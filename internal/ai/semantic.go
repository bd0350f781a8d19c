package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

// maxPromptLines caps how much of a file is sent for semantic analysis.
// Issues past the cap go unreported; the heuristic analyzers still
// cover the whole file.
const maxPromptLines = 800

// semanticResponse is the JSON contract SemanticAnalyze expects back.
type semanticResponse struct {
	Issues []types.SemanticIssue `json:"issues"`
}

// SemanticAnalyze asks the model for refactor-worthy issues in one file.
// Issues with out-of-range lines or empty descriptions are dropped so
// downstream consumers never see them.
func (a *Analyzer) SemanticAnalyze(ctx context.Context, file types.SourceFile) ([]types.SemanticIssue, error) {
	lines := strings.Split(file.Content, "\n")
	prompt := buildSemanticPrompt(file.Path, lines)

	text, err := a.callModel(ctx, "semantic_analysis", prompt, 2048)
	if err != nil {
		return nil, fmt.Errorf("semantic analysis of %s failed: %w", file.Path, err)
	}

	response, err := parseJSON[semanticResponse](text)
	if err != nil {
		return nil, fmt.Errorf("semantic analysis of %s returned malformed response: %w", file.Path, err)
	}

	return filterIssues(file.Path, len(lines), response.Issues), nil
}

// filterIssues drops issues with out-of-range lines or empty
// descriptions. Models occasionally hallucinate line numbers past the
// end of the file; those reports are worse than silence.
func filterIssues(path string, lineCount int, issues []types.SemanticIssue) []types.SemanticIssue {
	kept := make([]types.SemanticIssue, 0, len(issues))
	for _, issue := range issues {
		if issue.Line < 1 || issue.Line > lineCount {
			fmt.Printf("Warning: dropping semantic issue with out-of-range line %d in %s\n", issue.Line, path)
			continue
		}
		if strings.TrimSpace(issue.Description) == "" {
			continue
		}
		kept = append(kept, issue)
	}
	return kept
}

// buildSemanticPrompt numbers each source line so the model can answer
// with accurate line references.
func buildSemanticPrompt(path string, lines []string) string {
	truncated := false
	if len(lines) > maxPromptLines {
		lines = lines[:maxPromptLines]
		truncated = true
	}

	var numbered strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&numbered, "%4d| %s\n", i+1, line)
	}

	truncationNote := ""
	if truncated {
		truncationNote = fmt.Sprintf("\nNote: only the first %d lines are shown.", maxPromptLines)
	}

	return fmt.Sprintf(`You are reviewing a source file for refactoring opportunities that simple metrics (complexity, length, duplication) cannot catch.

FILE: %s

SOURCE (line numbers added):
%s%s

TASK:
Identify up to 5 issues worth refactoring: misleading names, mixed responsibilities, error handling gaps, dead or unreachable code, fragile patterns. Skip style nitpicks and anything a formatter would fix.

OUTPUT FORMAT (JSON only, no markdown):
{
  "issues": [
    {
      "line": <line number where the issue starts>,
      "description": "What is wrong",
      "suggestion": "How to fix it"
    }
  ]
}

Return {"issues": []} if the file is clean.

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`,
		path, numbered.String(), truncationNote)
}
