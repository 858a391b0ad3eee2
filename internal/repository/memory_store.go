package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"insightboard/pkg/models"
)

// MemoryCollectionStore is a map-backed CollectionStore used in tests and
// for ephemeral runs.
type MemoryCollectionStore struct {
	mu          sync.RWMutex
	collections map[string][]json.RawMessage
}

// NewMemoryCollectionStore creates an empty in-memory store.
func NewMemoryCollectionStore() *MemoryCollectionStore {
	return &MemoryCollectionStore{
		collections: make(map[string][]json.RawMessage),
	}
}

// Load returns the raw elements of the named collection.
func (s *MemoryCollectionStore) Load(ctx context.Context, name string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw := s.collections[name]
	out := make([]json.RawMessage, len(raw))
	copy(out, raw)
	return out, nil
}

// Save overwrites the named collection with the given records.
func (s *MemoryCollectionStore) Save(ctx context.Context, name string, records []models.Record) error {
	raw := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
		}
		raw = append(raw, data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = raw
	return nil
}

// SetRaw replaces the named collection with arbitrary raw elements. It exists
// so tests can stage legacy shapes (bare id strings, partial objects) that
// Save, which only accepts canonical records, cannot produce.
func (s *MemoryCollectionStore) SetRaw(name string, raw []json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[name] = raw
}
