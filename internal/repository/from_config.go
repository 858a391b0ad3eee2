package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"insightboard/internal/config"
)

// NewFromConfig builds the CollectionStore selected by the configuration, so
// every command reads and writes the same backend. The returned cleanup
// closes the database pool for the postgres backend and is a no-op otherwise.
func NewFromConfig(ctx context.Context, cfg *config.Config) (CollectionStore, func(), error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return NewFileCollectionStore(cfg.Storage.Dir), func() {}, nil

	case "postgres":
		connStr := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
		)

		pool, err := pgxpool.New(ctx, connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}

		store := NewPostgresCollectionStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
