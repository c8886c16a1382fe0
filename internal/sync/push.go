package sync

import (
	"context"

	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/courses"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/memos"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
	"github.com/tbellec/flashdeck/internal/repositories/subjects"
)

// push drains queued deletions first, then pushes unsynced records parent
// collections before child ones, so reconciled ids are available when the
// children go out. Records whose parent still carries a temporary id are
// skipped; the parent's reconciliation re-dirties them for the next pass.
//
// The dispatched set guarantees each record is sent at most once per pass
// even when reconciliation re-dirties rows mid-push.
func (e *Engine) push(ctx context.Context) error {
	dispatched := make(map[string]bool)

	if err := e.drainDeletions(ctx); err != nil {
		return err
	}
	if err := e.pushSubjects(ctx, dispatched); err != nil {
		return err
	}
	if err := e.pushCourses(ctx, dispatched); err != nil {
		return err
	}
	if err := e.pushCards(ctx, dispatched); err != nil {
		return err
	}
	if err := e.pushMemos(ctx, dispatched); err != nil {
		return err
	}
	if err := e.pushProgress(ctx, dispatched); err != nil {
		return err
	}
	return e.pushHistory(ctx, dispatched)
}

// drainDeletions propagates queued deletions before any upsert, so a
// deleted record cannot be resurrected by its own stale local copy.
// Temporary ids were never created remotely and are dropped directly.
func (e *Engine) drainDeletions(ctx context.Context) error {
	pending, err := e.repos.Deletions.List(ctx)
	if err != nil {
		return err
	}
	for _, d := range pending {
		if !models.IsLocalID(d.ID) {
			if err := e.remote.DeleteRow(ctx, d.Collection, d.ID); err != nil {
				return err
			}
		}
		if err := e.repos.Deletions.Remove(ctx, d.ID, d.Collection); err != nil {
			return err
		}
		e.logger.Debug(ctx, "deletion propagated", "collection", d.Collection, "id", d.ID)
	}
	return nil
}

func (e *Engine) pushSubjects(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.Subjects.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.Subject
	var updateIDs []string
	for i := range unsynced {
		s := unsynced[i]
		key := "subjects/" + s.ID
		if dispatched[key] {
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(s.ID) {
			updates = append(updates, s)
			updateIDs = append(updateIDs, s.ID)
			continue
		}

		created, err := e.remote.CreateSubject(ctx, &s)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := cards.NewSQLiteRepository(tx).ReassignSubject(ctx, s.ID, created.ID); err != nil {
				return err
			}
			if err := courses.NewSQLiteRepository(tx).ReassignSubject(ctx, s.ID, created.ID); err != nil {
				return err
			}
			repo := subjects.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, s.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.Upsert(ctx, created)
		})
		if err != nil {
			return err
		}
		e.logger.Debug(ctx, "subject reconciled", "temp", s.ID, "id", created.ID)
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertSubjects(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.Subjects.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushCourses(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.Courses.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.Course
	var updateIDs []string
	for i := range unsynced {
		c := unsynced[i]
		key := "courses/" + c.ID
		if dispatched[key] {
			continue
		}
		if models.IsLocalID(c.SubjectID) {
			e.logger.Debug(ctx, "course deferred, subject not reconciled", "id", c.ID)
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(c.ID) {
			updates = append(updates, c)
			updateIDs = append(updateIDs, c.ID)
			continue
		}

		created, err := e.remote.CreateCourse(ctx, &c)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := memos.NewSQLiteRepository(tx).ReassignCourse(ctx, c.ID, created.ID); err != nil {
				return err
			}
			repo := courses.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, c.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.Upsert(ctx, created)
		})
		if err != nil {
			return err
		}
		e.logger.Debug(ctx, "course reconciled", "temp", c.ID, "id", created.ID)
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertCourses(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.Courses.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushCards(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.Cards.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.Card
	var updateIDs []string
	for i := range unsynced {
		c := unsynced[i]
		key := "cards/" + c.ID
		if dispatched[key] {
			continue
		}
		if models.IsLocalID(c.SubjectID) {
			e.logger.Debug(ctx, "card deferred, subject not reconciled", "id", c.ID)
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(c.ID) {
			updates = append(updates, c)
			updateIDs = append(updateIDs, c.ID)
			continue
		}

		created, err := e.remote.CreateCard(ctx, &c)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := progress.NewSQLiteRepository(tx).ReassignCard(ctx, c.ID, created.ID); err != nil {
				return err
			}
			if err := history.NewSQLiteRepository(tx).ReassignCard(ctx, c.ID, created.ID); err != nil {
				return err
			}
			repo := cards.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, c.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.Upsert(ctx, created)
		})
		if err != nil {
			return err
		}
		e.logger.Debug(ctx, "card reconciled", "temp", c.ID, "id", created.ID)
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertCards(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.Cards.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushMemos(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.Memos.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.Memo
	var updateIDs []string
	for i := range unsynced {
		m := unsynced[i]
		key := "memos/" + m.ID
		if dispatched[key] {
			continue
		}
		if m.CourseID != "" && models.IsLocalID(m.CourseID) {
			e.logger.Debug(ctx, "memo deferred, course not reconciled", "id", m.ID)
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(m.ID) {
			updates = append(updates, m)
			updateIDs = append(updateIDs, m.ID)
			continue
		}

		created, err := e.remote.CreateMemo(ctx, &m)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := memos.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, m.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.Upsert(ctx, created)
		})
		if err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertMemos(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.Memos.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushProgress(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.Progress.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.CardProgress
	var updateIDs []string
	for i := range unsynced {
		p := unsynced[i]
		key := "progress/" + p.ID
		if dispatched[key] {
			continue
		}
		if models.IsLocalID(p.CardID) {
			e.logger.Debug(ctx, "progress deferred, card not reconciled", "id", p.ID)
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(p.ID) {
			updates = append(updates, p)
			updateIDs = append(updateIDs, p.ID)
			continue
		}

		created, err := e.remote.CreateProgress(ctx, &p)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := progress.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, p.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.Upsert(ctx, created)
		})
		if err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertProgress(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.Progress.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushHistory(ctx context.Context, dispatched map[string]bool) error {
	unsynced, err := e.repos.History.ListUnsynced(ctx)
	if err != nil {
		return err
	}

	var updates []models.ReviewEntry
	var updateIDs []string
	for i := range unsynced {
		h := unsynced[i]
		key := "history/" + h.ID
		if dispatched[key] {
			continue
		}
		if models.IsLocalID(h.CardID) {
			e.logger.Debug(ctx, "review entry deferred, card not reconciled", "id", h.ID)
			continue
		}
		dispatched[key] = true

		if !models.IsLocalID(h.ID) {
			updates = append(updates, h)
			updateIDs = append(updateIDs, h.ID)
			continue
		}

		created, err := e.remote.CreateHistory(ctx, &h)
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, e.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := history.NewSQLiteRepository(tx)
			if err := repo.Delete(ctx, h.ID); err != nil {
				return err
			}
			created.Synced = true
			return repo.BulkUpsert(ctx, []models.ReviewEntry{*created})
		})
		if err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err := e.remote.UpsertHistory(ctx, updates); err != nil {
			return err
		}
		if err := e.repos.History.MarkSynced(ctx, updateIDs); err != nil {
			return err
		}
	}
	return nil
}
