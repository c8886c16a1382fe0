package memos

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

const memoColumns = "id, content, color, pinned, course_id, position, workspace_id, created_at, updated_at, synced"

func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.Memo) error {
	query := `
		INSERT INTO memos (id, content, color, pinned, course_id, position, workspace_id, created_at, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			color = excluded.color,
			pinned = excluded.pinned,
			course_id = excluded.course_id,
			position = excluded.position,
			workspace_id = excluded.workspace_id,
			updated_at = excluded.updated_at,
			synced = excluded.synced;
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Content, m.Color, m.Pinned, nullable(m.CourseID), m.Position,
		m.WorkspaceID, m.CreatedAt, m.UpdatedAt, m.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert memo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, ms []models.Memo) error {
	for i := range ms {
		if err := r.Upsert(ctx, &ms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Memo, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memoColumns+" FROM memos WHERE id = ?;", id)
	m, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memo: %w", err)
	}
	return m, nil
}

// List returns pinned memos first, then by position.
func (r *SQLiteRepository) List(ctx context.Context) ([]models.Memo, error) {
	return r.list(ctx,
		"SELECT "+memoColumns+" FROM memos ORDER BY pinned DESC, position;")
}

func (r *SQLiteRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Memo, error) {
	return r.list(ctx,
		"SELECT "+memoColumns+" FROM memos WHERE course_id = ? ORDER BY pinned DESC, position;", courseID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Memo, error) {
	return r.list(ctx, "SELECT "+memoColumns+" FROM memos WHERE synced = 0;")
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Memo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memos: %w", err)
	}
	defer rows.Close()

	var result []models.Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ReassignCourse(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE memos SET course_id = ?, synced = 0 WHERE course_id = ?;", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reassign memos: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE memos SET synced = 1 WHERE id IN (" + dbx.Placeholders(len(ids)) + ");"
	if _, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...); err != nil {
		return fmt.Errorf("failed to mark memos synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM memos WHERE id = ?;", id); err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemo(s rowScanner) (*models.Memo, error) {
	var m models.Memo
	var courseID sql.NullString
	err := s.Scan(&m.ID, &m.Content, &m.Color, &m.Pinned, &courseID, &m.Position,
		&m.WorkspaceID, &m.CreatedAt, &m.UpdatedAt, &m.Synced)
	if err != nil {
		return nil, err
	}
	m.CourseID = courseID.String
	return &m, nil
}
