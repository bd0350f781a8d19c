package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

// maxGateOutputBytes bounds how much test output goes into a repair
// prompt. Test runners print failures last, so the tail is kept.
const maxGateOutputBytes = 4 * 1024

// fixResponse is the shape the model answers repair prompts with.
type fixResponse struct {
	Changes []types.FileChange `json:"changes"`
}

// ProposeFix asks the model to repair a refactoring that failed the
// test gate. files carries the current content of every file the
// refactoring touched; the returned changes are full-content rewrites
// restricted to those same files.
func (a *Analyzer) ProposeFix(ctx context.Context, ref types.Refactoring, gateOutput string, files []types.SourceFile) ([]types.FileChange, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to repair for %s", ref.Target())
	}

	total := 0
	for _, f := range files {
		total += len(f.Content)
	}
	if total > maxProposeBytes {
		return nil, fmt.Errorf("%s touches too much content for model-backed repair (%d bytes)", ref.Target(), total)
	}

	prompt := buildFixPrompt(ref, gateOutput, files)

	text, err := a.callModel(ctx, "autofix", prompt, 8192)
	if err != nil {
		return nil, fmt.Errorf("repair proposal for %s failed: %w", ref.Target(), err)
	}

	resp, err := parseJSON[fixResponse](text)
	if err != nil {
		return nil, fmt.Errorf("repair proposal for %s was malformed: %w", ref.Target(), err)
	}
	if len(resp.Changes) == 0 {
		return nil, fmt.Errorf("model proposed no changes for %s", ref.Target())
	}

	allowed := make(map[string]bool, len(files))
	for _, f := range files {
		allowed[f.Path] = true
	}
	for _, c := range resp.Changes {
		if !allowed[c.File] {
			return nil, fmt.Errorf("model repair for %s touches unrelated file %s", ref.Target(), c.File)
		}
	}

	return resp.Changes, nil
}

func buildFixPrompt(ref types.Refactoring, gateOutput string, files []types.SourceFile) string {
	if len(gateOutput) > maxGateOutputBytes {
		gateOutput = "[...truncated...]\n" + gateOutput[len(gateOutput)-maxGateOutputBytes:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `An automated refactoring was applied and the project's test suite now fails. Repair the touched files so the tests pass again while keeping the refactoring's intent.

REFACTORING: %s (%s)

TEST OUTPUT:
%s

CURRENT FILE CONTENTS:
`, ref.Description, ref.Target(), gateOutput)

	for _, f := range files {
		fmt.Fprintf(&b, "\n=== %s ===\n%s\n", f.Path, f.Content)
	}

	b.WriteString(`
TASK:
Fix the failure with the smallest possible edit. Only the files shown above may change.

OUTPUT FORMAT (JSON only, no markdown):
{
  "changes": [
    {"file": "path", "content": "entire new file content"}
  ]
}

RULES:
1. "content" must be the ENTIRE file, not a diff or fragment.
2. Only include files that actually need to change.
3. If the refactoring itself is unsalvageable, still return your best repair; the tool rolls back on repeated failure.

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`)

	return b.String()
}
