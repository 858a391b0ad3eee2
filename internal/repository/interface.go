package repository

import (
	"context"
	"encoding/json"

	"insightboard/pkg/models"
)

// Names of the persisted lifecycle collections.
const (
	CollectionGenerated    = "generated"
	CollectionValid        = "valid"
	CollectionInvalid      = "invalid"
	CollectionExperimental = "experimental"
	CollectionApproved     = "approved"
)

// CollectionStore is an interface for loading and persisting named lifecycle
// collections.
//
// Load returns the raw stored elements so legacy shapes (bare id strings,
// partial objects) survive untouched until the normalizer folds them. A
// missing or unreadable collection loads as an empty list, never as an error;
// availability wins over strict durability here.
type CollectionStore interface {
	// Load returns the raw elements of the named collection.
	Load(ctx context.Context, name string) ([]json.RawMessage, error)
	// Save overwrites the named collection with the given records.
	Save(ctx context.Context, name string, records []models.Record) error
}
