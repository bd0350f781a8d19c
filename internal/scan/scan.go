// Package scan resolves which source files an analysis run covers: the
// whole project, the files with uncommitted changes, or an explicit path.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/types"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{".git", ".mend", "node_modules", "vendor", "dist", "build"}

// DefaultExtensions are the source file extensions analyzed when the
// config does not override them.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".go", ".py"}

// maxFileSize skips generated bundles and vendored blobs. Files over the
// cap are never analyzed.
const maxFileSize = 1 << 20

// maxFiles bounds the file set of one walk.
const maxFiles = 2000

// Scanner collects candidate source files under a project root. All
// returned paths are slash-separated and relative to the root, matching
// the paths git reports, so every layer keys files the same way.
type Scanner struct {
	root     string
	exts     map[string]bool
	skipDirs map[string]bool
	git      git.Operations
}

// New creates a Scanner rooted at root. Extensions include the dot. Nil
// slices fall back to the defaults.
func New(root string, exts, skipDirs []string, g git.Operations) *Scanner {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	if len(skipDirs) == 0 {
		skipDirs = DefaultSkipDirs
	}

	s := &Scanner{
		root:     root,
		exts:     make(map[string]bool, len(exts)),
		skipDirs: make(map[string]bool, len(skipDirs)),
		git:      g,
	}
	for _, ext := range exts {
		s.exts[strings.ToLower(ext)] = true
	}
	for _, dir := range skipDirs {
		s.skipDirs[dir] = true
	}
	return s
}

// Root returns the project root the scanner operates on.
func (s *Scanner) Root() string {
	return s.root
}

// All returns every matching file under the root, sorted.
func (s *Scanner) All() ([]string, error) {
	return s.walk(s.root)
}

// Changed returns the files with uncommitted modifications, filtered to
// the scanner's extensions. The root must be a git repository.
func (s *Scanner) Changed(ctx context.Context) ([]string, error) {
	if s.git == nil || !s.git.IsRepo(ctx, s.root) {
		return nil, fmt.Errorf("%s is not a git repository", s.root)
	}

	changed, err := s.git.ChangedFiles(ctx, s.root)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, f := range changed {
		if s.matches(f) {
			files = append(files, filepath.ToSlash(f))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ByPath returns the files selected by an explicit target. A file target
// is returned as-is regardless of extension; a directory target is walked
// with the usual filters.
func (s *Scanner) ByPath(target string) ([]string, error) {
	full := target
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.root, target)
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", target, err)
	}

	if !info.IsDir() {
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			return nil, fmt.Errorf("%s is outside the project root: %w", target, err)
		}
		return []string{filepath.ToSlash(rel)}, nil
	}
	return s.walk(full)
}

// Load reads the contents of paths into SourceFiles. Unreadable files are
// skipped with a warning so one bad file never aborts a run.
func (s *Scanner) Load(paths []string) []types.SourceFile {
	var files []types.SourceFile
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Join(s.root, p))
		if err != nil {
			fmt.Printf("Warning: cannot read %s: %v (skipping)\n", p, err)
			continue
		}
		files = append(files, types.SourceFile{Path: p, Content: string(data)})
	}
	return files
}

func (s *Scanner) walk(dir string) ([]string, error) {
	var files []string
	truncated := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && s.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matches(path) {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileSize {
			return nil
		}
		if len(files) >= maxFiles {
			truncated = true
			return fs.SkipAll
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if truncated {
		fmt.Printf("Warning: stopped at %d files; narrow the target to cover the rest\n", maxFiles)
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) matches(path string) bool {
	return s.exts[strings.ToLower(filepath.Ext(path))]
}
