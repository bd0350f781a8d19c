package git

import (
	"context"
)

// Operations provides the git operations mend needs. The interface keeps
// callers testable with mock implementations.
type Operations interface {
	// IsRepo reports whether path is inside a git work tree.
	IsRepo(ctx context.Context, repoPath string) bool

	// GetStatus returns detailed git status information.
	GetStatus(ctx context.Context, repoPath string) (*Status, error)

	// ChangedFiles returns the paths with uncommitted changes.
	ChangedFiles(ctx context.Context, repoPath string) ([]string, error)

	// Diff returns the working tree diff, optionally staged only.
	Diff(ctx context.Context, repoPath string, staged bool) (string, error)

	// DiffFile returns the working tree diff for a single file.
	DiffFile(ctx context.Context, repoPath, file string) (string, error)

	// HeadRef returns the commit hash of HEAD.
	HeadRef(ctx context.Context, repoPath string) (string, error)

	// StashCreate captures the working tree as a dangling commit.
	StashCreate(ctx context.Context, repoPath, message string) (string, error)

	// TagRef points a lightweight tag at ref.
	TagRef(ctx context.Context, repoPath, name, ref string) error

	// DeleteTag removes a tag created by TagRef.
	DeleteTag(ctx context.Context, repoPath, name string) error

	// RestoreAll resets the working tree to the state captured in ref.
	RestoreAll(ctx context.Context, repoPath, ref string) error
}

// Status represents the git status of a repository.
type Status struct {
	// Modified files (staged or unstaged)
	Modified []string

	// Untracked files
	Untracked []string

	// Deleted files
	Deleted []string

	// Added files (staged)
	Added []string

	// Renamed files, by their new name
	Renamed []string

	// HasChanges is true if any changes exist
	HasChanges bool
}
