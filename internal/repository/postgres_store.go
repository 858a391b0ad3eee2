package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"insightboard/pkg/models"
)

// PostgresCollectionStore is a PostgreSQL implementation of the
// CollectionStore interface. Each collection lives in one JSONB row, so a
// save replaces the collection atomically; moves across collections remain
// two sequential statements, not a transaction.
type PostgresCollectionStore struct {
	db *pgxpool.Pool
}

// NewPostgresCollectionStore creates a new PostgresCollectionStore.
func NewPostgresCollectionStore(db *pgxpool.Pool) *PostgresCollectionStore {
	return &PostgresCollectionStore{db: db}
}

// EnsureSchema creates the backing table if it does not exist.
func (s *PostgresCollectionStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS visual_collections (
		name TEXT PRIMARY KEY,
		records JSONB NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Load returns the raw elements of the named collection. A missing row or
// malformed JSONB payload loads as an empty collection.
func (s *PostgresCollectionStore) Load(ctx context.Context, name string) ([]json.RawMessage, error) {
	var data []byte
	err := s.db.QueryRow(ctx, "SELECT records FROM visual_collections WHERE name = $1", name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load collection %s: %w", name, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil
	}
	return raw, nil
}

// Save overwrites the named collection with the given records.
func (s *PostgresCollectionStore) Save(ctx context.Context, name string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", name, err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO visual_collections (name, records) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET records = EXCLUDED.records`,
		name, data)
	if err != nil {
		return fmt.Errorf("failed to save collection %s: %w", name, err)
	}
	return nil
}
