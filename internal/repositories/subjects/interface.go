package subjects

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

// Repository describes persistence operations for subjects.
type Repository interface {
	Upsert(ctx context.Context, s *models.Subject) error
	BulkUpsert(ctx context.Context, ss []models.Subject) error

	// GetByID returns a subject or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Subject, error)

	// GetByName matches case-insensitively within the workspace and returns
	// common.ErrNotFound when no subject carries the name.
	GetByName(ctx context.Context, workspaceID, name string) (*models.Subject, error)

	List(ctx context.Context) ([]models.Subject, error)
	ListUnsynced(ctx context.Context) ([]models.Subject, error)
	MarkSynced(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
}
