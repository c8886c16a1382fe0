package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const progressColumns = "id, card_id, user_id, interval, ease_factor, status, step, due_date, review_count, updated_at, synced"

// Upsert keys on the (card_id, user_id) pair rather than the row id, so a
// pulled remote row replaces a locally created one for the same card.
func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.CardProgress) error {
	query := `
		INSERT INTO user_card_progress (id, card_id, user_id, interval, ease_factor, status, step, due_date, review_count, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(card_id, user_id) DO UPDATE SET
			id = excluded.id,
			interval = excluded.interval,
			ease_factor = excluded.ease_factor,
			status = excluded.status,
			step = excluded.step,
			due_date = excluded.due_date,
			review_count = excluded.review_count,
			updated_at = excluded.updated_at,
			synced = excluded.synced;
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.CardID, p.UserID, p.Interval, p.EaseFactor, string(p.Status),
		p.Step, p.DueDate, p.ReviewCount, p.UpdatedAt, p.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, ps []models.CardProgress) error {
	for i := range ps {
		if err := r.Upsert(ctx, &ps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.CardProgress, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM user_card_progress WHERE id = ?;", id)
	return r.get(row)
}

func (r *SQLiteRepository) GetByCardAndUser(ctx context.Context, cardID, userID string) (*models.CardProgress, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+progressColumns+" FROM user_card_progress WHERE card_id = ? AND user_id = ?;",
		cardID, userID)
	return r.get(row)
}

func (r *SQLiteRepository) get(row *sql.Row) (*models.CardProgress, error) {
	p, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]models.CardProgress, error) {
	return r.list(ctx,
		"SELECT "+progressColumns+" FROM user_card_progress WHERE user_id = ?;", userID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.CardProgress, error) {
	return r.list(ctx, "SELECT "+progressColumns+" FROM user_card_progress WHERE synced = 0;")
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.CardProgress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var result []models.CardProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ReassignCard(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_card_progress SET card_id = ?, synced = 0 WHERE card_id = ?;", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reassign progress: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE user_card_progress SET synced = 1 WHERE id IN (" + dbx.Placeholders(len(ids)) + ");"
	if _, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...); err != nil {
		return fmt.Errorf("failed to mark progress synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_card_progress WHERE id = ?;", id); err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByCard(ctx context.Context, cardID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_card_progress WHERE card_id = ?;", cardID); err != nil {
		return fmt.Errorf("failed to delete progress for card: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(s rowScanner) (*models.CardProgress, error) {
	var p models.CardProgress
	var status string
	err := s.Scan(&p.ID, &p.CardID, &p.UserID, &p.Interval, &p.EaseFactor, &status,
		&p.Step, &p.DueDate, &p.ReviewCount, &p.UpdatedAt, &p.Synced)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	return &p, nil
}
