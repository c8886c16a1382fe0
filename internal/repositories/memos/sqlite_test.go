package memos

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
		CREATE TABLE memos (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			pinned INTEGER NOT NULL DEFAULT 0,
			course_id TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			workspace_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			synced INTEGER NOT NULL DEFAULT 0
		);
	`)
	require.NoError(t, err)
	return db
}

func testMemo(id string) *models.Memo {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Memo{
		ID:          id,
		Content:     "Krebs cycle summary",
		Color:       "yellow",
		WorkspaceID: "ws1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestUpsert_RoundTripNoCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	m := testMemo("m1")
	require.NoError(t, repo.Upsert(ctx, m))

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "", got.CourseID)
	assert.Equal(t, "yellow", got.Color)
	assert.False(t, got.Synced)
}

func TestList_PinnedFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	a := testMemo("m1")
	a.Position = 0
	b := testMemo("m2")
	b.Position = 1
	b.Pinned = true
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, b))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].ID)
}

func TestListByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	a := testMemo("m1")
	a.CourseID = "c1"
	b := testMemo("m2")
	require.NoError(t, repo.Upsert(ctx, a))
	require.NoError(t, repo.Upsert(ctx, b))

	got, err := repo.ListByCourse(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestReassignCourse_MarksDirty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	m := testMemo("m1")
	m.CourseID = "local_123_abc"
	m.Synced = true
	require.NoError(t, repo.Upsert(ctx, m))

	require.NoError(t, repo.ReassignCourse(ctx, "local_123_abc", "c-perm"))

	got, err := repo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "c-perm", got.CourseID)
	assert.False(t, got.Synced)
}

func TestMarkSyncedAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testMemo("m1")))

	require.NoError(t, repo.MarkSynced(ctx, []string{"m1"}))
	unsynced, err := repo.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	require.NoError(t, repo.Delete(ctx, "m1"))
	_, err = repo.GetByID(ctx, "m1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
