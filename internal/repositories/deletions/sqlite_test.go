package deletions

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tbellec/flashdeck/internal/common"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE pending_deletions (
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			PRIMARY KEY (id, collection)
		);
	`)
	require.NoError(t, err)
	return db
}

func TestEnqueue_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "card1", common.CollectionCards))
	require.NoError(t, repo.Enqueue(ctx, "card1", common.CollectionCards))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEnqueue_SameIDDifferentCollections(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "x", common.CollectionCards))
	require.NoError(t, repo.Enqueue(ctx, "x", common.CollectionMemos))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRemove(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Enqueue(ctx, "card1", common.CollectionCards))
	require.NoError(t, repo.Remove(ctx, "card1", common.CollectionCards))
	// Removing an absent row is a no-op.
	require.NoError(t, repo.Remove(ctx, "card1", common.CollectionCards))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
