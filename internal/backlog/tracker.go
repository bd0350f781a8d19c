package backlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// Tracker reads and writes the backlog file. All mutation goes through
// load-modify-save so concurrent hand edits between runs are picked up.
type Tracker struct {
	path string
}

// NewTracker creates a tracker for the backlog file at path.
func NewTracker(path string) *Tracker {
	return &Tracker{path: path}
}

// Path returns the backlog file location.
func (t *Tracker) Path() string {
	return t.path
}

// Load parses the backlog file. A missing file yields an empty document.
func (t *Tracker) Load() (*Document, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read backlog: %w", err)
	}
	return Parse(string(data)), nil
}

// Add merges candidates into the backlog and persists it. Existing
// file:startLine keys are updated in place and re-bucketed when their tier
// changed; new keys append to their tier.
func (t *Tracker) Add(candidates []Entry) error {
	doc, err := t.Load()
	if err != nil {
		return err
	}
	for _, c := range candidates {
		doc.Upsert(c)
	}
	return t.Save(doc)
}

// MarkComplete flips the checkbox for the entry matching file:line and
// persists the document. Only the completion flag changes.
func (t *Tracker) MarkComplete(file string, line int) error {
	doc, err := t.Load()
	if err != nil {
		return err
	}
	if !doc.MarkComplete(file, line) {
		return fmt.Errorf("no backlog entry for %s:%d", file, line)
	}
	return t.Save(doc)
}

// Save writes the document atomically via a temp file rename.
func (t *Tracker) Save(doc *Document) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create backlog directory: %w", err)
		}
	}

	tmpPath := t.path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(Format(doc)), 0644); err != nil {
		return fmt.Errorf("failed to write backlog: %w", err)
	}
	if err := os.Rename(tmpPath, t.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save backlog: %w", err)
	}
	return nil
}
