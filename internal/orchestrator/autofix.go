package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mendtool/mend/internal/ai"
	"github.com/mendtool/mend/internal/executor"
	"github.com/mendtool/mend/internal/types"
)

// workspaceAutofixer repairs gate failures between executor retries: it
// reads the files the refactoring touched, asks the model for
// full-content rewrites, and writes them back. Everything happens
// inside the batch checkpoint, so a repair that makes things worse is
// still rolled back with the rest.
type workspaceAutofixer struct {
	root  string
	model *ai.Analyzer
}

// Fix implements executor.Autofixer.
func (f *workspaceAutofixer) Fix(ctx context.Context, item executor.Item, gateOutput string) error {
	paths := touchedPaths(item.Refactoring)

	files := make([]types.SourceFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(filepath.Join(f.root, p))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read %s for repair: %w", p, err)
		}
		files = append(files, types.SourceFile{Path: p, Content: string(content)})
	}

	changes, err := f.model.ProposeFix(ctx, item.Refactoring, gateOutput, files)
	if err != nil {
		return err
	}

	for _, c := range changes {
		path := filepath.Join(f.root, c.File)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", c.File, err)
			}
		}
		if err := os.WriteFile(path, []byte(c.Content), 0644); err != nil {
			return fmt.Errorf("failed to write repair to %s: %w", c.File, err)
		}
	}
	return nil
}

// touchedPaths lists every file a refactoring writes or rewrites,
// deduplicated and in stable order.
func touchedPaths(ref types.Refactoring) []string {
	var paths []string
	switch ref.Type {
	case types.RefactoringExtract:
		paths = []string{ref.Source, ref.NewFile}
	case types.RefactoringRename:
		paths = append(paths, ref.Files...)
	case types.RefactoringSplit:
		paths = append(paths, ref.Source)
		for target := range ref.Targets {
			paths = append(paths, target)
		}
	case types.RefactoringGeneric:
		for _, c := range ref.Changes {
			paths = append(paths, c.File)
		}
	}

	sort.Strings(paths)
	unique := paths[:0]
	for i, p := range paths {
		if i == 0 || p != paths[i-1] {
			unique = append(unique, p)
		}
	}
	return unique
}
