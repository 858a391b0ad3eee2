package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"insightboard/pkg/models"
)

// FileCollectionStore persists each collection as an indented JSON array in
// <dir>/<name>.json. Writes are whole-file and unlocked; concurrent writers
// race and the last one wins.
type FileCollectionStore struct {
	dir string
}

// NewFileCollectionStore creates a store rooted at dir.
func NewFileCollectionStore(dir string) *FileCollectionStore {
	return &FileCollectionStore{dir: dir}
}

func (s *FileCollectionStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load returns the raw elements of the named collection. A missing, empty or
// corrupt file loads as an empty collection.
func (s *FileCollectionStore) Load(ctx context.Context, name string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt content is treated as empty rather than surfaced; the
		// next save rewrites the file wholesale.
		return nil, nil
	}
	return raw, nil
}

// Save overwrites the named collection, creating the directory if absent.
func (s *FileCollectionStore) Save(ctx context.Context, name string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}

	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}
