package cards

import (
	"context"

	"github.com/tbellec/flashdeck/internal/models"
)

// Repository describes persistence operations for cards. Implementations
// are backed by the local SQLite database.
type Repository interface {
	// Upsert inserts a card or replaces an existing one by id.
	Upsert(ctx context.Context, c *models.Card) error

	// BulkUpsert applies Upsert to every card in one statement batch.
	BulkUpsert(ctx context.Context, cs []models.Card) error

	// GetByID returns a card or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Card, error)

	// List returns all cards.
	List(ctx context.Context) ([]models.Card, error)

	// ListBySubject returns the cards referencing the given subject.
	ListBySubject(ctx context.Context, subjectID string) ([]models.Card, error)

	// ListUnsynced returns cards with local changes awaiting push.
	ListUnsynced(ctx context.Context) ([]models.Card, error)

	// ReassignSubject re-points cards from oldID to newID and marks them
	// unsynced, since their foreign key changed.
	ReassignSubject(ctx context.Context, oldID, newID string) error

	// MarkSynced flags the given ids as acknowledged by the remote store.
	MarkSynced(ctx context.Context, ids []string) error

	// Delete removes a card row.
	Delete(ctx context.Context, id string) error
}
