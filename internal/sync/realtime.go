package sync

import (
	"context"
	"fmt"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/remote"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
)

// HandleChange applies one realtime event to the local store using the same
// conflict rule as pull. It is safe to call concurrently with sync cycles:
// every write goes through its own transaction.
func (e *Engine) HandleChange(ctx context.Context, ch remote.Change) error {
	if ch.Type == remote.ChangeDelete {
		return e.applyRemoteDelete(ctx, ch.Collection, ch.OldID)
	}

	v, err := remote.DecodeChangeRecord(ch)
	if err != nil {
		return fmt.Errorf("failed to decode change: %w", err)
	}

	deleted, err := e.pendingDeletionSet(ctx)
	if err != nil {
		return err
	}

	switch rec := v.(type) {
	case models.Card:
		return e.applyCards(ctx, []models.Card{rec}, deleted)
	case models.Subject:
		return e.applySubjects(ctx, []models.Subject{rec}, deleted)
	case models.Course:
		return e.applyCourses(ctx, []models.Course{rec}, deleted)
	case models.Memo:
		return e.applyMemos(ctx, []models.Memo{rec}, deleted)
	case models.CardProgress:
		// The progress channel is not scoped server-side; other users'
		// rows in a shared workspace are not ours to store.
		if rec.UserID != e.userID {
			return nil
		}
		return e.applyProgress(ctx, []models.CardProgress{rec})
	default:
		return fmt.Errorf("unexpected change record type %T", v)
	}
}

// applyRemoteDelete removes the local copy of a remotely deleted row. A
// deleted card takes its local progress and review history with it.
func (e *Engine) applyRemoteDelete(ctx context.Context, collection, id string) error {
	if id == "" {
		return nil
	}
	e.logger.Debug(ctx, "applying remote deletion", "collection", collection, "id", id)

	switch collection {
	case common.CollectionCards:
		return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := progress.NewSQLiteRepository(tx).DeleteByCard(ctx, id); err != nil {
				return err
			}
			if err := history.NewSQLiteRepository(tx).DeleteByCard(ctx, id); err != nil {
				return err
			}
			return cards.NewSQLiteRepository(tx).Delete(ctx, id)
		})
	case common.CollectionSubjects:
		return e.repos.Subjects.Delete(ctx, id)
	case common.CollectionCourses:
		return e.repos.Courses.Delete(ctx, id)
	case common.CollectionMemos:
		return e.repos.Memos.Delete(ctx, id)
	case common.CollectionProgress:
		return e.repos.Progress.Delete(ctx, id)
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
}
