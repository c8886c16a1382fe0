package progress

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE user_card_progress (
			id TEXT PRIMARY KEY,
			card_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			interval REAL NOT NULL DEFAULT 0,
			ease_factor REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'new',
			step INTEGER NOT NULL DEFAULT 0,
			due_date DATETIME NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			synced INTEGER NOT NULL DEFAULT 0,
			UNIQUE(card_id, user_id)
		);
	`)
	require.NoError(t, err)
	return db
}

func testProgress(id, cardID string) *models.CardProgress {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.CardProgress{
		ID:         id,
		CardID:     cardID,
		UserID:     "u1",
		Interval:   1,
		EaseFactor: 2.5,
		Status:     models.StatusLearning,
		Step:       1,
		DueDate:    now.Add(24 * time.Hour),
		UpdatedAt:  now,
	}
}

func TestUpsert_ConflictOnCardAndUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	local := testProgress("local_111_aaa", "card1")
	require.NoError(t, repo.Upsert(ctx, local))

	// A pulled remote row for the same card/user pair replaces the local one,
	// id included.
	remote := testProgress("p-remote", "card1")
	remote.Status = models.StatusReview
	remote.ReviewCount = 5
	remote.Synced = true
	require.NoError(t, repo.Upsert(ctx, remote))

	got, err := repo.GetByCardAndUser(ctx, "card1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "p-remote", got.ID)
	assert.Equal(t, models.StatusReview, got.Status)
	assert.Equal(t, 5, got.ReviewCount)

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetByCardAndUser_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByCardAndUser(context.Background(), "card1", "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReassignCard_MarksDirty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	p := testProgress("p1", "local_123_abc")
	p.Synced = true
	require.NoError(t, repo.Upsert(ctx, p))

	require.NoError(t, repo.ReassignCard(ctx, "local_123_abc", "card-perm"))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "card-perm", got.CardID)
	assert.False(t, got.Synced)
}

func TestMarkSynced(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testProgress("p1", "card1")))
	require.NoError(t, repo.Upsert(ctx, testProgress("p2", "card2")))

	require.NoError(t, repo.MarkSynced(ctx, []string{"p1"}))

	unsynced, err := repo.ListUnsynced(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, "p2", unsynced[0].ID)
}

func TestDeleteByCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testProgress("p1", "card1")))
	require.NoError(t, repo.Upsert(ctx, testProgress("p2", "card2")))

	require.NoError(t, repo.DeleteByCard(ctx, "card1"))

	_, err := repo.GetByID(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.GetByID(ctx, "p2")
	assert.NoError(t, err)
}
