package history

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tbellec/flashdeck/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE review_history (
			id TEXT PRIMARY KEY,
			card_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			reviewed_at DATETIME NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			synced INTEGER NOT NULL DEFAULT 0
		);
	`)
	require.NoError(t, err)
	return db
}

func testEntry(id, cardID string) *models.ReviewEntry {
	return &models.ReviewEntry{
		ID:         id,
		CardID:     cardID,
		UserID:     "u1",
		Rating:     4,
		ReviewedAt: time.Now().UTC().Truncate(time.Second),
		Duration:   3500 * time.Millisecond,
	}
}

func TestInsertAndListByCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := testEntry("h1", "card1")
	require.NoError(t, repo.Insert(ctx, e))
	require.NoError(t, repo.Insert(ctx, testEntry("h2", "card2")))

	got, err := repo.ListByCard(ctx, "card1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Rating)
	assert.Equal(t, 3500*time.Millisecond, got[0].Duration)
}

func TestInsert_DuplicateIDFails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testEntry("h1", "card1")))
	assert.Error(t, repo.Insert(ctx, testEntry("h1", "card1")))
}

func TestBulkUpsert_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := testEntry("h1", "card1")
	e.Synced = true
	require.NoError(t, repo.BulkUpsert(ctx, []models.ReviewEntry{*e}))
	require.NoError(t, repo.BulkUpsert(ctx, []models.ReviewEntry{*e}))

	got, err := repo.ListByCard(ctx, "card1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Synced)
}

func TestReassignCard_MarksDirty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	e := testEntry("h1", "local_123_abc")
	e.Synced = true
	require.NoError(t, repo.Insert(ctx, e))

	require.NoError(t, repo.ReassignCard(ctx, "local_123_abc", "card-perm"))

	got, err := repo.ListByCard(ctx, "card-perm")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Synced)
}

func TestMarkSyncedAndDeleteByCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, testEntry("h1", "card1")))
	require.NoError(t, repo.Insert(ctx, testEntry("h2", "card1")))

	require.NoError(t, repo.MarkSynced(ctx, []string{"h1", "h2"}))
	unsynced, err := repo.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	require.NoError(t, repo.DeleteByCard(ctx, "card1"))
	got, err := repo.ListByCard(ctx, "card1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
