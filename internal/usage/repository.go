package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileRepository persists usage state as a JSON file, normally
// .mend/usage.json.
type FileRepository struct {
	path string
}

// NewFileRepository creates a repository writing to the given path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load reads the stored state. A missing file is not an error; it
// returns a nil state so the tracker starts at zero.
func (r *FileRepository) Load() (*State, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read usage state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse usage state: %w", err)
	}
	return &state, nil
}

// Save writes the state, creating the parent directory when needed.
func (r *FileRepository) Save(state *State) error {
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create usage state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage state: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage state: %w", err)
	}
	return nil
}
