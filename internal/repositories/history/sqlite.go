package history

import (
	"context"
	"fmt"
	"time"

	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const historyColumns = "id, card_id, user_id, rating, reviewed_at, duration_ms, synced"

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.ReviewEntry) error {
	query := `
		INSERT INTO review_history (id, card_id, user_id, rating, reviewed_at, duration_ms, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.CardID, e.UserID, e.Rating, e.ReviewedAt, e.Duration.Milliseconds(), e.Synced)
	if err != nil {
		return fmt.Errorf("failed to insert review entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, es []models.ReviewEntry) error {
	query := `
		INSERT INTO review_history (id, card_id, user_id, rating, reviewed_at, duration_ms, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET synced = excluded.synced;
	`
	for i := range es {
		e := &es[i]
		_, err := r.db.ExecContext(ctx, query,
			e.ID, e.CardID, e.UserID, e.Rating, e.ReviewedAt, e.Duration.Milliseconds(), e.Synced)
		if err != nil {
			return fmt.Errorf("failed to upsert review entry: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListByCard(ctx context.Context, cardID string) ([]models.ReviewEntry, error) {
	return r.list(ctx,
		"SELECT "+historyColumns+" FROM review_history WHERE card_id = ? ORDER BY reviewed_at;", cardID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.ReviewEntry, error) {
	return r.list(ctx, "SELECT "+historyColumns+" FROM review_history WHERE synced = 0;")
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.ReviewEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review history: %w", err)
	}
	defer rows.Close()

	var result []models.ReviewEntry
	for rows.Next() {
		var e models.ReviewEntry
		var durationMS int64
		err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &e.Rating, &e.ReviewedAt, &durationMS, &e.Synced)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review entry: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ReassignCard(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE review_history SET card_id = ?, synced = 0 WHERE card_id = ?;", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reassign review history: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE review_history SET synced = 1 WHERE id IN (" + dbx.Placeholders(len(ids)) + ");"
	if _, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...); err != nil {
		return fmt.Errorf("failed to mark review history synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM review_history WHERE id = ?;", id); err != nil {
		return fmt.Errorf("failed to delete review entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByCard(ctx context.Context, cardID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM review_history WHERE card_id = ?;", cardID); err != nil {
		return fmt.Errorf("failed to delete review history for card: %w", err)
	}
	return nil
}
