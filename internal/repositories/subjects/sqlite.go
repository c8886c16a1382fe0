package subjects

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

const subjectColumns = `id, name, workspace_id, created_at, updated_at, synced`

func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.Subject) error {
	query := `INSERT INTO subjects (` + subjectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			workspace_id = excluded.workspace_id,
			updated_at = excluded.updated_at,
			synced = excluded.synced
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.WorkspaceID, s.CreatedAt, s.UpdatedAt, s.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert subject: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, ss []models.Subject) error {
	for i := range ss {
		if err := r.Upsert(ctx, &ss[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = ?`, id)
	return r.scanOne(row, id)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, workspaceID, name string) (*models.Subject, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subjectColumns+` FROM subjects WHERE workspace_id = ? AND name = ? COLLATE NOCASE`,
		workspaceID, name)
	return r.scanOne(row, name)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Subject, error) {
	return r.list(ctx, `SELECT `+subjectColumns+` FROM subjects`)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Subject, error) {
	return r.list(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE synced = 0`)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE subjects SET synced = 1 WHERE id IN (` + dbx.Placeholders(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...); err != nil {
		return fmt.Errorf("failed to mark subjects synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete subject %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row, key string) (*models.Subject, error) {
	var s models.Subject
	err := row.Scan(&s.ID, &s.Name, &s.WorkspaceID, &s.CreatedAt, &s.UpdatedAt, &s.Synced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %s: %w", key, err)
	}
	return &s, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Subject, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select subjects: %w", err)
	}
	defer rows.Close()

	var result []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.WorkspaceID, &s.CreatedAt, &s.UpdatedAt, &s.Synced); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
