// Package preferences persists per-course calendar sync state. All records
// live in one named slot with get-whole/set-whole semantics; the backing
// technology only ever sees the serialized list as a single value.
package preferences

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"coursecal/models"
)

// Slot is the persistence boundary: load or replace the whole record list.
// There is no partial-update API. Load preserves the order records were
// stored in.
type Slot interface {
	Load() ([]models.CourseCalendarRecord, error)
	Store(records []models.CourseCalendarRecord) error
}

// FileSlot keeps the record list as a JSON file on an afero filesystem.
// Tests use afero.NewMemMapFs.
type FileSlot struct {
	fs   afero.Fs
	path string
}

// NewFileSlot creates a file-backed slot at path, creating parent
// directories as needed.
func NewFileSlot(fs afero.Fs, path string) (*FileSlot, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences dir: %w", err)
	}
	return &FileSlot{fs: fs, path: path}, nil
}

// Load reads the persisted record list. A missing file is an empty list.
func (s *FileSlot) Load() ([]models.CourseCalendarRecord, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []models.CourseCalendarRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return records, nil
}

// Store replaces the persisted record list.
func (s *FileSlot) Store(records []models.CourseCalendarRecord) error {
	if records == nil {
		records = []models.CourseCalendarRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}
