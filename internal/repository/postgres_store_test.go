package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"insightboard/pkg/models"
)

func TestPostgresCollectionStore(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresCollectionStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	t.Run("missing collection loads empty", func(t *testing.T) {
		raw, err := store.Load(ctx, CollectionGenerated)
		require.NoError(t, err)
		assert.Empty(t, raw)
	})

	t.Run("save and load round trip", func(t *testing.T) {
		records := []models.Record{
			{ID: "cash-balance", Question: "what is my cash balance", Name: "Cash Balance", SourceHandle: "charts/CashBalanceCard"},
		}
		require.NoError(t, store.Save(ctx, CollectionApproved, records))

		raw, err := store.Load(ctx, CollectionApproved)
		require.NoError(t, err)
		require.Len(t, raw, 1)

		var rec models.Record
		require.NoError(t, json.Unmarshal(raw[0], &rec))
		assert.Equal(t, records[0], rec)
	})

	t.Run("save overwrites the collection", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, CollectionApproved, []models.Record{
			{ID: "position-pnl", Question: "how are my positions", Name: "Position P&L", SourceHandle: "charts/PositionPnlTable"},
		}))

		raw, err := store.Load(ctx, CollectionApproved)
		require.NoError(t, err)
		require.Len(t, raw, 1)

		var rec models.Record
		require.NoError(t, json.Unmarshal(raw[0], &rec))
		assert.Equal(t, "position-pnl", rec.ID)
	})
}
