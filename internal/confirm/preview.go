package confirm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/mendtool/mend/internal/types"
)

// Preview renders a unified diff between each file's current content and
// its planned content. Files that do not exist yet diff against empty.
func Preview(root string, changes []types.FileChange) (string, error) {
	if len(changes) == 0 {
		return "(no planned changes)", nil
	}

	var b strings.Builder
	for _, c := range changes {
		old := ""
		if data, err := os.ReadFile(filepath.Join(root, c.File)); err == nil {
			old = string(data)
		}

		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(old),
			B:        difflib.SplitLines(c.Content),
			FromFile: "a/" + c.File,
			ToFile:   "b/" + c.File,
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return "", fmt.Errorf("failed to diff %s: %w", c.File, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}
