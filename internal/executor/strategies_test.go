package executor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mendtool/mend/internal/types"
)

func writeTreeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestPlanExtract(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, root, "src/util.js",
		"function keep() {\n  return 1;\n}\nconst a = 1;\nconst b = 2;\nconst c = 3;\n")

	changes, err := Plan(root, types.Refactoring{
		Type:      types.RefactoringExtract,
		Source:    "src/util.js",
		Name:      "helpers",
		StartLine: 4,
		EndLine:   6,
		NewFile:   "src/helpers.js",
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	wantSource := "function keep() {\n  return 1;\n}\n// helpers: see src/helpers.js\n"
	if changes[0].File != "src/util.js" || changes[0].Content != wantSource {
		t.Errorf("source change = %q %q, want %q", changes[0].File, changes[0].Content, wantSource)
	}

	wantNew := "// helpers extracted from src/util.js:4-6\nconst a = 1;\nconst b = 2;\nconst c = 3;\n"
	if changes[1].File != "src/helpers.js" || changes[1].Content != wantNew {
		t.Errorf("new file change = %q %q, want %q", changes[1].File, changes[1].Content, wantNew)
	}
}

func TestPlanExtractPythonComment(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, root, "tool.py",
		"def keep():\n    return 1\n\nCOLORS = ['red']\nSIZES = [1, 2]\n")

	changes, err := Plan(root, types.Refactoring{
		Type:      types.RefactoringExtract,
		Source:    "tool.py",
		Name:      "constants",
		StartLine: 4,
		EndLine:   5,
		NewFile:   "constants.py",
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	wantSource := "def keep():\n    return 1\n\n# constants: see constants.py\n"
	if changes[0].Content != wantSource {
		t.Errorf("source content = %q, want %q", changes[0].Content, wantSource)
	}
	if !strings.HasPrefix(changes[1].Content, "# constants extracted from tool.py:4-5\n") {
		t.Errorf("new file content uses wrong comment marker: %q", changes[1].Content)
	}
}

func TestPlanExtractRangeBeyondFile(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, root, "short.js", "const a = 1;\n")

	_, err := Plan(root, types.Refactoring{
		Type:      types.RefactoringExtract,
		Source:    "short.js",
		Name:      "nothing",
		StartLine: 5,
		EndLine:   9,
		NewFile:   "nothing.js",
	})
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
}

func TestPlanExtractMissingSource(t *testing.T) {
	_, err := Plan(t.TempDir(), types.Refactoring{
		Type:      types.RefactoringExtract,
		Source:    "gone.js",
		Name:      "x",
		StartLine: 1,
		EndLine:   1,
		NewFile:   "x.js",
	})
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestPlanRename(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, root, "a.js", "function fetchData() {\n  return fetchData;\n}\n")
	writeTreeFile(t, root, "b.js", "import { fetchData } from './a';\nfetchData();\n")
	writeTreeFile(t, root, "c.js", "const unrelated = 1;\n")

	changes, err := Plan(root, types.Refactoring{
		Type:    types.RefactoringRename,
		OldName: "fetchData",
		NewName: "loadData",
		Files:   []string{"a.js", "b.js", "c.js"},
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes (c.js has no occurrence), got %d", len(changes))
	}
	if changes[0].File != "a.js" || changes[0].Content != "function loadData() {\n  return loadData;\n}\n" {
		t.Errorf("unexpected a.js change: %q", changes[0].Content)
	}
	if changes[1].File != "b.js" || changes[1].Content != "import { loadData } from './a';\nloadData();\n" {
		t.Errorf("unexpected b.js change: %q", changes[1].Content)
	}
}

func TestPlanRenameNoOccurrences(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, root, "a.js", "const unrelated = 1;\n")

	_, err := Plan(root, types.Refactoring{
		Type:    types.RefactoringRename,
		OldName: "fetchData",
		NewName: "loadData",
		Files:   []string{"a.js"},
	})
	if err == nil || !strings.Contains(err.Error(), "no occurrences") {
		t.Fatalf("expected no-occurrences error, got %v", err)
	}
}

func TestPlanSplit(t *testing.T) {
	changes, err := Plan(t.TempDir(), types.Refactoring{
		Type:   types.RefactoringSplit,
		Source: "src/big.js",
		Targets: map[string]string{
			"src/render.js": "render\n",
			"src/fetch.js":  "fetch\n",
		},
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	// Path order keeps the plan deterministic.
	if changes[0].File != "src/fetch.js" || changes[0].Content != "fetch\n" {
		t.Errorf("unexpected first change: %+v", changes[0])
	}
	if changes[1].File != "src/render.js" || changes[1].Content != "render\n" {
		t.Errorf("unexpected second change: %+v", changes[1])
	}
}

func TestPlanGenericPassthrough(t *testing.T) {
	want := []types.FileChange{{File: "a.js", Content: "rewritten\n"}}
	changes, err := Plan(t.TempDir(), types.Refactoring{
		Type:    types.RefactoringGeneric,
		Changes: want,
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 1 || changes[0] != want[0] {
		t.Errorf("expected passthrough of explicit changes, got %+v", changes)
	}
}

func TestPlanValidates(t *testing.T) {
	_, err := Plan(t.TempDir(), types.Refactoring{
		Type:      types.RefactoringExtract,
		Source:    "a.js",
		Name:      "x",
		StartLine: 1,
		EndLine:   2,
		// NewFile missing
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCommentToken(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/a.js", "//"},
		{"src/a.ts", "//"},
		{"main.go", "//"},
		{"tool.py", "#"},
		{"script.sh", "#"},
		{"lib.rb", "#"},
		{"README", "//"},
	}
	for _, tt := range tests {
		if got := commentToken(tt.path); got != tt.want {
			t.Errorf("commentToken(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
