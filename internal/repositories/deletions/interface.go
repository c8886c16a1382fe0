package deletions

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

// Repository is the durable queue of deletes awaiting remote confirmation.
type Repository interface {
	Enqueue(ctx context.Context, id, collection string) error
	List(ctx context.Context) ([]models.PendingDeletion, error)
	Remove(ctx context.Context, id, collection string) error
}
