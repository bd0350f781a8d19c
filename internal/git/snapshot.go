package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// HeadRef returns the commit hash of HEAD.
func (g *Git) HeadRef(ctx context.Context, repoPath string) (string, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// StashCreate captures the current working tree as a dangling stash commit
// without disturbing the tree itself. Everything is staged first so
// untracked files are part of the snapshot; a later RestoreAll would
// otherwise delete them. Returns the empty string when the tree is clean.
func (g *Git) StashCreate(ctx context.Context, repoPath, message string) (string, error) {
	addCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "add", "-A")
	if err := addCmd.Run(); err != nil {
		return "", fmt.Errorf("git add failed in %s: %w", repoPath, err)
	}

	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "stash", "create", message)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git stash create failed in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// TagRef points a lightweight tag at ref so the snapshot commit stays
// reachable and survives garbage collection.
func (g *Git) TagRef(ctx context.Context, repoPath, name, ref string) error {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "tag", name, ref)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git tag %s failed in %s: %w\n%s", name, repoPath, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// DeleteTag removes a tag created by TagRef. A missing tag is not an error.
func (g *Git) DeleteTag(ctx context.Context, repoPath, name string) error {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "tag", "-d", name)
	if output, err := cmd.CombinedOutput(); err != nil {
		if strings.Contains(string(output), "not found") {
			return nil
		}
		return fmt.Errorf("git tag -d %s failed in %s: %w", name, repoPath, err)
	}
	return nil
}

// RestoreAll resets every tracked file to its state in ref and removes
// files created since. The ref must include the untracked files present at
// capture time, which StashCreate guarantees by staging everything first.
func (g *Git) RestoreAll(ctx context.Context, repoPath, ref string) error {
	checkoutCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "checkout", ref, "--", ".")
	if output, err := checkoutCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git checkout %s failed in %s: %w\n%s", ref, repoPath, err, strings.TrimSpace(string(output)))
	}

	cleanCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "clean", "-fd")
	if output, err := cleanCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clean failed in %s: %w\n%s", repoPath, err, strings.TrimSpace(string(output)))
	}
	return nil
}
