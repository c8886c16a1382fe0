package history

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

// Repository stores the append-only review log. Entries are never updated
// after insert; BulkUpsert exists so pulled remote rows can be applied
// idempotently.
type Repository interface {
	Insert(ctx context.Context, e *models.ReviewEntry) error
	BulkUpsert(ctx context.Context, es []models.ReviewEntry) error
	ListByCard(ctx context.Context, cardID string) ([]models.ReviewEntry, error)
	ListUnsynced(ctx context.Context) ([]models.ReviewEntry, error)
	ReassignCard(ctx context.Context, oldID, newID string) error
	MarkSynced(ctx context.Context, ids []string) error
	Delete(ctx context.Context, id string) error
	DeleteByCard(ctx context.Context, cardID string) error
}
