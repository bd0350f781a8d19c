// Package analysis makes repeated scans incremental and observable: a
// content-hash cache over per-file results plus a cancellable progress
// tracker with ETA, tied together by a driving loop.
package analysis

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mendtool/mend/internal/types"
)

// CacheEntry is one cached per-file analysis result.
type CacheEntry struct {
	Hash      string              `json:"hash"`
	Result    []types.Opportunity `json:"result"`
	Timestamp time.Time           `json:"timestamp"`
}

// Cache remembers per-file analysis results keyed by path, validated by
// content hash, so unchanged files skip re-analysis across runs.
type Cache struct {
	path string

	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// NewCache creates an empty cache that persists to the given file.
func NewCache(path string) *Cache {
	return &Cache{
		path:    path,
		entries: make(map[string]CacheEntry),
	}
}

// ContentHash returns the stable 128-bit digest used to detect changed files.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// GetCached returns the stored result for path only while the content still
// matches the stored hash.
func (c *Cache) GetCached(path, content string) ([]types.Opportunity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	if entry.Hash != ContentHash(content) {
		return nil, false
	}
	return entry.Result, true
}

// Store records the result for path, overwriting any prior entry.
func (c *Cache) Store(path, content string, result []types.Opportunity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = CacheEntry{
		Hash:      ContentHash(content),
		Result:    result,
		Timestamp: time.Now(),
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Load reads the cache file. A missing file is a fresh start, not an error.
// On any failure the in-memory entries are left untouched: a transient read
// error must never discard the results of a good prior run.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	var entries map[string]CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}
	if entries == nil {
		entries = make(map[string]CacheEntry)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Save persists the entries atomically (write to a temp file, then rename).
// Persistence is best-effort by contract: callers warn and continue on error.
func (c *Cache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

// Reset clears all entries and removes the cache file. This is the only way
// entries are ever deleted.
func (c *Cache) Reset() error {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}
