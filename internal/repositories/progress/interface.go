package progress

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, p *models.CardProgress) error
	BulkUpsert(ctx context.Context, ps []models.CardProgress) error
	GetByID(ctx context.Context, id string) (*models.CardProgress, error)
	// GetByCardAndUser looks up the single progress row for a card/user pair.
	GetByCardAndUser(ctx context.Context, cardID, userID string) (*models.CardProgress, error)
	ListByUser(ctx context.Context, userID string) ([]models.CardProgress, error)
	ListUnsynced(ctx context.Context) ([]models.CardProgress, error)
	ReassignCard(ctx context.Context, oldID, newID string) error
	MarkSynced(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	DeleteByCard(ctx context.Context, cardID string) error
}
