package ai

import (
	"context"
	"fmt"

	"github.com/mendtool/mend/internal/types"
)

// maxProposeBytes bounds the file size for model-backed planning. A
// proposal built from a truncated file would rewrite the file with the
// truncation baked in, so oversized files are refused instead.
const maxProposeBytes = 48 * 1024

// ProposeRefactoring turns a scored opportunity into a concrete
// refactoring the executor can apply. The model answers in the same
// tagged shape the executor consumes; anything that fails validation is
// rejected here rather than at apply time.
func (a *Analyzer) ProposeRefactoring(ctx context.Context, opp types.ScoredOpportunity, file types.SourceFile) (*types.Refactoring, error) {
	if len(file.Content) > maxProposeBytes {
		return nil, fmt.Errorf("%s is too large for model-backed planning (%d bytes)", file.Path, len(file.Content))
	}

	prompt := buildProposePrompt(opp, file)

	text, err := a.callModel(ctx, "propose_refactoring", prompt, 8192)
	if err != nil {
		return nil, fmt.Errorf("refactoring proposal for %s failed: %w", opp.Opportunity.Key(), err)
	}

	ref, err := parseJSON[types.Refactoring](text)
	if err != nil {
		return nil, fmt.Errorf("refactoring proposal for %s was malformed: %w", opp.Opportunity.Key(), err)
	}

	if ref.Description == "" {
		ref.Description = opp.Opportunity.Description
	}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("model proposed an invalid refactoring for %s: %w", opp.Opportunity.Key(), err)
	}
	if ref.Type == types.RefactoringGeneric && !touchesFile(ref.Changes, file.Path) {
		return nil, fmt.Errorf("model proposal for %s does not touch %s", opp.Opportunity.Key(), file.Path)
	}

	return &ref, nil
}

func touchesFile(changes []types.FileChange, path string) bool {
	for _, c := range changes {
		if c.File == path {
			return true
		}
	}
	return false
}

func buildProposePrompt(opp types.ScoredOpportunity, file types.SourceFile) string {
	o := opp.Opportunity

	location := fmt.Sprintf("line %d", o.Line)
	if o.EndLine > o.Line {
		location = fmt.Sprintf("lines %d-%d", o.Line, o.EndLine)
	}

	return fmt.Sprintf(`You are planning one refactoring for an automated tool. The tool will apply your plan mechanically and run the project's test suite; if tests fail the change is rolled back.

FILE: %s
ISSUE (%s, impact %.0f): %s at %s

FULL FILE CONTENT:
%s

TASK:
Produce ONE refactoring that fixes the issue above and nothing else. Prefer the "generic" form with the complete new content of every file you change. Keep the public behavior identical so the test suite still passes.

OUTPUT FORMAT (JSON only, no markdown) - exactly one of:
{
  "type": "generic",
  "description": "What this refactoring does",
  "changes": [
    {"file": "path", "content": "entire new file content"}
  ]
}
or
{
  "type": "extract",
  "description": "What this refactoring does",
  "source": "path",
  "name": "new unit name",
  "start_line": <first line to extract>,
  "end_line": <last line to extract>,
  "new_file": "path for the extracted unit"
}

RULES:
1. "changes" must contain the ENTIRE file content, not a diff or fragment.
2. Do not invent files that the fix does not need.
3. Do not reformat unrelated code.

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`,
		file.Path, o.Type, opp.Score.Total, o.Description, location, file.Content)
}
