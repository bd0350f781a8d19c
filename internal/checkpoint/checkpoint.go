// Package checkpoint captures and restores working tree state around a
// refactoring batch. A checkpoint is a git commit created via stash
// machinery, pinned by a tag so garbage collection cannot drop it while a
// run is in flight.
package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mendtool/mend/internal/git"
	"github.com/mendtool/mend/internal/types"
)

const tagPrefix = "mend-checkpoint-"

// Store creates and restores working tree checkpoints backed by git.
type Store struct {
	git  git.Operations
	root string
}

// NewStore creates a checkpoint store for the repository at root.
func NewStore(g git.Operations, root string) *Store {
	return &Store{git: g, root: root}
}

// Create captures the current working tree. A clean tree checkpoints HEAD
// itself; a dirty tree is captured without disturbing it.
func (s *Store) Create(ctx context.Context) (*types.Checkpoint, error) {
	id := uuid.New().String()[:8]

	ref, err := s.git.StashCreate(ctx, s.root, fmt.Sprintf("mend checkpoint %s", id))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint: %w", err)
	}
	if ref == "" {
		ref, err = s.git.HeadRef(ctx, s.root)
		if err != nil {
			return nil, fmt.Errorf("failed to create checkpoint: %w", err)
		}
	}

	cp := &types.Checkpoint{ID: id, Ref: ref, CreatedAt: time.Now()}
	if err := s.git.TagRef(ctx, s.root, tagPrefix+cp.ID, ref); err != nil {
		return nil, fmt.Errorf("failed to pin checkpoint: %w", err)
	}
	return cp, nil
}

// Rollback restores the working tree to the checkpointed state. Files
// created after the checkpoint are removed.
func (s *Store) Rollback(ctx context.Context, cp *types.Checkpoint) error {
	if cp == nil || cp.Ref == "" {
		return fmt.Errorf("invalid checkpoint")
	}
	if err := s.git.RestoreAll(ctx, s.root, cp.Ref); err != nil {
		return fmt.Errorf("rollback to checkpoint %s failed: %w", cp.ID, err)
	}
	return nil
}

// Release drops the pin on a checkpoint that is no longer needed. The
// working tree is not touched; failures only warn since a stale tag is
// harmless.
func (s *Store) Release(ctx context.Context, cp *types.Checkpoint) {
	if cp == nil {
		return
	}
	if err := s.git.DeleteTag(ctx, s.root, tagPrefix+cp.ID); err != nil {
		fmt.Printf("Warning: failed to release checkpoint %s: %v\n", cp.ID, err)
	}
}
