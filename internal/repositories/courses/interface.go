package courses

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, c *models.Course) error
	BulkUpsert(ctx context.Context, cs []models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Course, error)
	ListUnsynced(ctx context.Context) ([]models.Course, error)
	ReassignSubject(ctx context.Context, oldID, newID string) error
	MarkSynced(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
}
