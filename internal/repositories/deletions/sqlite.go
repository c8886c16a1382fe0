package deletions

import (
	"context"
	"fmt"

	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, id, collection string) error {
	query := `
		INSERT INTO pending_deletions (id, collection)
		VALUES (?, ?)
		ON CONFLICT(id, collection) DO NOTHING;
	`
	if _, err := r.db.ExecContext(ctx, query, id, collection); err != nil {
		return fmt.Errorf("failed to enqueue deletion: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.PendingDeletion, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, collection FROM pending_deletions;")
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletions: %w", err)
	}
	defer rows.Close()

	var result []models.PendingDeletion
	for rows.Next() {
		var d models.PendingDeletion
		if err := rows.Scan(&d.ID, &d.Collection); err != nil {
			return nil, fmt.Errorf("failed to scan pending deletion: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Remove(ctx context.Context, id, collection string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM pending_deletions WHERE id = ? AND collection = ?;", id, collection)
	if err != nil {
		return fmt.Errorf("failed to remove pending deletion: %w", err)
	}
	return nil
}
