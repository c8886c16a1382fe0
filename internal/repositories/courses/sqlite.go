package courses

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

const courseColumns = "id, title, content, subject_id, workspace_id, created_at, updated_at, synced"

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.Course) error {
	query := `
		INSERT INTO courses (id, title, content, subject_id, workspace_id, created_at, updated_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			subject_id = excluded.subject_id,
			workspace_id = excluded.workspace_id,
			updated_at = excluded.updated_at,
			synced = excluded.synced;
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.Content, c.SubjectID, c.WorkspaceID, c.CreatedAt, c.UpdatedAt, c.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert course: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, cs []models.Course) error {
	for i := range cs {
		if err := r.Upsert(ctx, &cs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id = ?;", id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Course, error) {
	return r.list(ctx, "SELECT "+courseColumns+" FROM courses ORDER BY created_at;")
}

func (r *SQLiteRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Course, error) {
	return r.list(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE subject_id = ? ORDER BY created_at;", subjectID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Course, error) {
	return r.list(ctx, "SELECT "+courseColumns+" FROM courses WHERE synced = 0;")
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var result []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) ReassignSubject(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE courses SET subject_id = ?, synced = 0 WHERE subject_id = ?;", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reassign courses: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := "UPDATE courses SET synced = 1 WHERE id IN (" + dbx.Placeholders(len(ids)) + ");"
	if _, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...); err != nil {
		return fmt.Errorf("failed to mark courses synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = ?;", id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(s rowScanner) (*models.Course, error) {
	var c models.Course
	err := s.Scan(&c.ID, &c.Title, &c.Content, &c.SubjectID, &c.WorkspaceID,
		&c.CreatedAt, &c.UpdatedAt, &c.Synced)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
