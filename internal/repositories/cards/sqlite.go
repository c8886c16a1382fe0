package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const cardColumns = `id, question, answer, question_image, answer_image, subject_id, workspace_id, created_at, updated_at, synced`

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.Card) error {
	query := `INSERT INTO cards (` + cardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET question = excluded.question,
			answer = excluded.answer,
			question_image = excluded.question_image,
			answer_image = excluded.answer_image,
			subject_id = excluded.subject_id,
			workspace_id = excluded.workspace_id,
			updated_at = excluded.updated_at,
			synced = excluded.synced
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Question, c.Answer, c.QuestionImage, c.AnswerImage,
		c.SubjectID, c.WorkspaceID, c.CreatedAt, c.UpdatedAt, c.Synced)
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) BulkUpsert(ctx context.Context, cs []models.Card) error {
	for i := range cs {
		if err := r.Upsert(ctx, &cs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards`)
}

func (r *SQLiteRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards WHERE subject_id = ?`, subjectID)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context) ([]models.Card, error) {
	return r.list(ctx, `SELECT `+cardColumns+` FROM cards WHERE synced = 0`)
}

func (r *SQLiteRepository) ReassignSubject(ctx context.Context, oldID, newID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cards SET subject_id = ?, synced = 0 WHERE subject_id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reassign cards from subject %s: %w", oldID, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE cards SET synced = 1 WHERE id IN (` + dbx.Placeholders(len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, dbx.Args(ids)...)
	if err != nil {
		return fmt.Errorf("failed to mark cards synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]models.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cards: %w", err)
	}
	defer rows.Close()

	var result []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	var c models.Card
	var qImage, aImage sql.NullString
	err := row.Scan(&c.ID, &c.Question, &c.Answer, &qImage, &aImage,
		&c.SubjectID, &c.WorkspaceID, &c.CreatedAt, &c.UpdatedAt, &c.Synced)
	if err != nil {
		return nil, err
	}
	c.QuestionImage = qImage.String
	c.AnswerImage = aImage.String
	return &c, nil
}
