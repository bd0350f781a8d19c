package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mendtool/mend/internal/types"
)

// Plan computes the file changes a refactoring would make without
// touching the working tree. Deciders use the plan to preview diffs;
// the executor writes it only after confirmation.
func Plan(root string, ref types.Refactoring) ([]types.FileChange, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	switch ref.Type {
	case types.RefactoringExtract:
		return planExtract(root, ref)
	case types.RefactoringRename:
		return planRename(root, ref)
	case types.RefactoringSplit:
		return planSplit(ref)
	case types.RefactoringGeneric:
		return ref.Changes, nil
	default:
		return nil, fmt.Errorf("unsupported refactoring type: %s", ref.Type)
	}
}

// planExtract slices the line range out of the source file into the new
// file and leaves a comment referencing the extracted unit in its place.
func planExtract(root string, ref types.Refactoring) ([]types.FileChange, error) {
	data, err := os.ReadFile(filepath.Join(root, ref.Source))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref.Source, err)
	}

	lines := strings.Split(string(data), "\n")
	if ref.EndLine > len(lines) {
		return nil, fmt.Errorf("extract range %d-%d exceeds %s (%d lines)",
			ref.StartLine, ref.EndLine, ref.Source, len(lines))
	}

	token := commentToken(ref.Source)
	extracted := lines[ref.StartLine-1 : ref.EndLine]

	var unit strings.Builder
	fmt.Fprintf(&unit, "%s %s extracted from %s:%d-%d\n", token, ref.Name, ref.Source, ref.StartLine, ref.EndLine)
	unit.WriteString(strings.Join(extracted, "\n"))
	unit.WriteString("\n")

	reference := fmt.Sprintf("%s %s: see %s", token, ref.Name, ref.NewFile)
	updated := make([]string, 0, len(lines)-len(extracted)+1)
	updated = append(updated, lines[:ref.StartLine-1]...)
	updated = append(updated, reference)
	updated = append(updated, lines[ref.EndLine:]...)

	return []types.FileChange{
		{File: ref.Source, Content: strings.Join(updated, "\n")},
		{File: ref.NewFile, Content: unit.String()},
	}, nil
}

// planRename substitutes the literal name across the listed files. Files
// without an occurrence produce no change; a rename that matches nowhere
// is an error since applying it would be a silent no-op.
func planRename(root string, ref types.Refactoring) ([]types.FileChange, error) {
	var changes []types.FileChange
	for _, file := range ref.Files {
		data, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		content := string(data)
		if !strings.Contains(content, ref.OldName) {
			continue
		}
		changes = append(changes, types.FileChange{
			File:    file,
			Content: strings.ReplaceAll(content, ref.OldName, ref.NewName),
		})
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("rename found no occurrences of %q in %d file(s)", ref.OldName, len(ref.Files))
	}
	return changes, nil
}

// planSplit writes each target file verbatim, in path order so plans are
// deterministic.
func planSplit(ref types.Refactoring) ([]types.FileChange, error) {
	files := make([]string, 0, len(ref.Targets))
	for file := range ref.Targets {
		files = append(files, file)
	}
	sort.Strings(files)

	changes := make([]types.FileChange, 0, len(files))
	for _, file := range files {
		changes = append(changes, types.FileChange{File: file, Content: ref.Targets[file]})
	}
	return changes, nil
}

// commentToken returns the single-line comment marker for the file's
// language, defaulting to the C-style slashes most supported languages
// share.
func commentToken(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".rb", ".sh":
		return "#"
	default:
		return "//"
	}
}
