package sync

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/courses"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/memos"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
	"github.com/tbellec/flashdeck/internal/repositories/subjects"
)

// pull fetches remote changes since the watermark for all collections
// concurrently, then applies each collection in its own transaction.
//
// Conflict rule: a remote row replaces the local one unless the local row
// carries unsynced changes that are at least as new. Rows whose deletion is
// still queued locally are never re-applied.
func (e *Engine) pull(ctx context.Context, since time.Time) error {
	var (
		remoteCards    []models.Card
		remoteSubjects []models.Subject
		remoteCourses  []models.Course
		remoteMemos    []models.Memo
		remoteProgress []models.CardProgress
		remoteHistory  []models.ReviewEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		remoteCards, err = e.remote.FetchCards(gctx, e.workspaceID, since)
		return err
	})
	g.Go(func() (err error) {
		remoteSubjects, err = e.remote.FetchSubjects(gctx, e.workspaceID, since)
		return err
	})
	g.Go(func() (err error) {
		remoteCourses, err = e.remote.FetchCourses(gctx, e.workspaceID, since)
		return err
	})
	g.Go(func() (err error) {
		remoteMemos, err = e.remote.FetchMemos(gctx, e.workspaceID, since)
		return err
	})
	g.Go(func() (err error) {
		remoteProgress, err = e.remote.FetchProgress(gctx, e.userID, since)
		return err
	})
	g.Go(func() (err error) {
		remoteHistory, err = e.remote.FetchHistory(gctx, e.userID, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	deleted, err := e.pendingDeletionSet(ctx)
	if err != nil {
		return err
	}

	if err := e.applySubjects(ctx, remoteSubjects, deleted); err != nil {
		return err
	}
	if err := e.applyCourses(ctx, remoteCourses, deleted); err != nil {
		return err
	}
	if err := e.applyCards(ctx, remoteCards, deleted); err != nil {
		return err
	}
	if err := e.applyMemos(ctx, remoteMemos, deleted); err != nil {
		return err
	}
	if err := e.applyProgress(ctx, remoteProgress); err != nil {
		return err
	}
	return e.applyHistory(ctx, remoteHistory)
}

// pendingDeletionSet keys queued deletions as collection+id.
func (e *Engine) pendingDeletionSet(ctx context.Context) (map[string]bool, error) {
	pending, err := e.repos.Deletions.List(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(pending))
	for _, d := range pending {
		set[d.Collection+"/"+d.ID] = true
	}
	return set, nil
}

// keepLocal reports whether the local row should survive the pull: it must
// carry unsynced changes at least as new as the remote row.
func keepLocal(localUpdatedAt time.Time, localSynced bool, remoteUpdatedAt time.Time) bool {
	return !localSynced && !remoteUpdatedAt.After(localUpdatedAt)
}

func (e *Engine) applyCards(ctx context.Context, remote []models.Card, deleted map[string]bool) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := cards.NewSQLiteRepository(tx)
		for i := range remote {
			rc := &remote[i]
			if deleted[common.CollectionCards+"/"+rc.ID] {
				continue
			}
			local, err := repo.GetByID(ctx, rc.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && keepLocal(local.UpdatedAt, local.Synced, rc.UpdatedAt) {
				e.logger.Debug(ctx, "pull kept local card", "id", rc.ID)
				continue
			}
			if err := repo.Upsert(ctx, rc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) applySubjects(ctx context.Context, remote []models.Subject, deleted map[string]bool) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := subjects.NewSQLiteRepository(tx)
		for i := range remote {
			rs := &remote[i]
			if deleted[common.CollectionSubjects+"/"+rs.ID] {
				continue
			}
			local, err := repo.GetByID(ctx, rs.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && keepLocal(local.UpdatedAt, local.Synced, rs.UpdatedAt) {
				continue
			}
			if err := repo.Upsert(ctx, rs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) applyCourses(ctx context.Context, remote []models.Course, deleted map[string]bool) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := courses.NewSQLiteRepository(tx)
		for i := range remote {
			rc := &remote[i]
			if deleted[common.CollectionCourses+"/"+rc.ID] {
				continue
			}
			local, err := repo.GetByID(ctx, rc.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && keepLocal(local.UpdatedAt, local.Synced, rc.UpdatedAt) {
				continue
			}
			if err := repo.Upsert(ctx, rc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) applyMemos(ctx context.Context, remote []models.Memo, deleted map[string]bool) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := memos.NewSQLiteRepository(tx)
		for i := range remote {
			rm := &remote[i]
			if deleted[common.CollectionMemos+"/"+rm.ID] {
				continue
			}
			local, err := repo.GetByID(ctx, rm.ID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && keepLocal(local.UpdatedAt, local.Synced, rm.UpdatedAt) {
				continue
			}
			if err := repo.Upsert(ctx, rm); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyProgress resolves conflicts on the (card, user) pair since local and
// remote rows for the same card may carry different ids.
func (e *Engine) applyProgress(ctx context.Context, remote []models.CardProgress) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := progress.NewSQLiteRepository(tx)
		for i := range remote {
			rp := &remote[i]
			local, err := repo.GetByCardAndUser(ctx, rp.CardID, rp.UserID)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return err
			}
			if local != nil && keepLocal(local.UpdatedAt, local.Synced, rp.UpdatedAt) {
				e.logger.Debug(ctx, "pull kept local progress", "card", rp.CardID)
				continue
			}
			if err := repo.Upsert(ctx, rp); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyHistory is a plain idempotent upsert: entries are append-only, so
// there is nothing to resolve.
func (e *Engine) applyHistory(ctx context.Context, remote []models.ReviewEntry) error {
	if len(remote) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return history.NewSQLiteRepository(tx).BulkUpsert(ctx, remote)
	})
}
