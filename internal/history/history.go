// Package history records executed batches in a sqlite database under
// .mend/ so past runs can be inspected after the working tree moves on.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/mendtool/mend/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    applied INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    rolled_back INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_batches_started_at ON batches(started_at);

CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    refactoring_type TEXT NOT NULL,
    target TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    gate_output_hash TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (batch_id) REFERENCES batches(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch_id);
`

// Item statuses.
const (
	StatusApplied = "applied"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Batch is one recorded executor run.
type Batch struct {
	ID         string
	Mode       types.Mode
	StartedAt  time.Time
	FinishedAt *time.Time
	Applied    int
	Skipped    int
	Failed     int
	RolledBack bool
}

// Item is one refactoring outcome within a batch. Items are stored
// grouped by outcome (applied, then skipped, then failed), not in
// execution order.
type Item struct {
	BatchID        string
	Position       int
	Type           types.RefactoringType
	Target         string
	Description    string
	Status         string
	Error          string
	GateOutputHash string
}

// Store is the sqlite-backed history store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the history database at path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginBatch records the start of an executor run and returns its handle.
func (s *Store) BeginBatch(ctx context.Context, mode types.Mode) (*Batch, error) {
	batch := &Batch{
		ID:        uuid.New().String()[:8],
		Mode:      mode,
		StartedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batches (id, mode, started_at) VALUES (?, ?, ?)`,
		batch.ID, string(batch.Mode), batch.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record batch start: %w", err)
	}
	return batch, nil
}

// FinishBatch stores the outcome of a batch and its per-item results.
func (s *Store) FinishBatch(ctx context.Context, batch *Batch, result *types.ExecutionResult) error {
	now := time.Now()
	batch.FinishedAt = &now
	batch.Applied = len(result.Applied)
	batch.Skipped = len(result.Skipped)
	batch.Failed = len(result.Failed)
	batch.RolledBack = result.RolledBack

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE batches
		 SET finished_at = ?, applied = ?, skipped = ?, failed = ?, rolled_back = ?
		 WHERE id = ?`,
		now, batch.Applied, batch.Skipped, batch.Failed, batch.RolledBack, batch.ID)
	if err != nil {
		return fmt.Errorf("failed to record batch outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("batch %s not found", batch.ID)
	}

	position := 0
	insert := func(items []types.ItemResult, status string) error {
		for _, item := range items {
			position++
			_, err := tx.ExecContext(ctx,
				`INSERT INTO items (batch_id, position, refactoring_type, target, description, status, error, gate_output_hash)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				batch.ID, position, string(item.Refactoring.Type), item.Refactoring.Target(),
				item.Refactoring.Description, status, item.Error, hashOutput(item.GateOutput))
			if err != nil {
				return fmt.Errorf("failed to record %s item: %w", status, err)
			}
		}
		return nil
	}
	if err := insert(result.Applied, StatusApplied); err != nil {
		return err
	}
	if err := insert(result.Skipped, StatusSkipped); err != nil {
		return err
	}
	if err := insert(result.Failed, StatusFailed); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}
	return nil
}

// RecentBatches returns the most recent batches, newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, started_at, finished_at, applied, skipped, failed, rolled_back
		 FROM batches
		 ORDER BY started_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var mode string
		var finishedAt sql.NullTime
		if err := rows.Scan(&b.ID, &mode, &b.StartedAt, &finishedAt,
			&b.Applied, &b.Skipped, &b.Failed, &b.RolledBack); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.Mode = types.Mode(mode)
		if finishedAt.Valid {
			b.FinishedAt = &finishedAt.Time
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating batch rows: %w", err)
	}
	return batches, nil
}

// PruneBatches deletes batches started before cutoff, with their items.
// Returns the number of batches removed.
func (s *Store) PruneBatches(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batches WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune batches: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return removed, nil
}

// BatchItems returns the stored item outcomes for one batch, in stored
// position order.
func (s *Store) BatchItems(ctx context.Context, batchID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id, position, refactoring_type, target, description, status, error, gate_output_hash
		 FROM items
		 WHERE batch_id = ?
		 ORDER BY position ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		var item Item
		var refType string
		if err := rows.Scan(&item.BatchID, &item.Position, &refType, &item.Target,
			&item.Description, &item.Status, &item.Error, &item.GateOutputHash); err != nil {
			return nil, fmt.Errorf("failed to scan batch item: %w", err)
		}
		item.Type = types.RefactoringType(refType)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}

// hashOutput stores a short digest instead of raw gate output, which
// can run to megabytes per item.
func hashOutput(output string) string {
	if output == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])[:12]
}
