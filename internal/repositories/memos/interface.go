package memos

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, m *models.Memo) error
	BulkUpsert(ctx context.Context, ms []models.Memo) error
	GetByID(ctx context.Context, id string) (*models.Memo, error)
	List(ctx context.Context) ([]models.Memo, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Memo, error)
	ListUnsynced(ctx context.Context) ([]models.Memo, error)
	ReassignCourse(ctx context.Context, oldID, newID string) error
	MarkSynced(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
}
