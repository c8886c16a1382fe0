// Package services implements the application operations on top of the
// repositories: content CRUD with offline-first semantics, import/export,
// and review sessions. Every local mutation marks the record dirty and
// nudges the sync engine; nothing here talks to the network directly.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/courses"
	"github.com/tbellec/flashdeck/internal/repositories/deletions"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/memos"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
	"github.com/tbellec/flashdeck/internal/repositories/subjects"
)

// Syncer triggers a sync cycle. Implemented by the sync engine; nil means
// fully offline operation.
type Syncer interface {
	Sync(ctx context.Context) error
}

// SubjectDeletionStrategy decides what happens to a deleted subject's
// content.
type SubjectDeletionStrategy int

const (
	// DeleteCascade removes the subject together with its cards and courses.
	DeleteCascade SubjectDeletionStrategy = iota
	// DeleteReassign moves the subject's cards and courses to the default
	// subject before removing it.
	DeleteReassign
)

type ContentService struct {
	repos       *repositories.Repositories
	validate    *validator.Validate
	logger      logging.Logger
	workspaceID string
	syncer      Syncer
	now         func() time.Time
}

func NewContentService(repos *repositories.Repositories, workspaceID string, syncer Syncer, logger logging.Logger) *ContentService {
	return &ContentService{
		repos:       repos,
		validate:    validator.New(),
		logger:      logger,
		workspaceID: workspaceID,
		syncer:      syncer,
		now:         time.Now,
	}
}

// triggerSync kicks the engine without blocking the caller. A cycle already
// in flight coalesces the trigger; other failures are retried on the next
// trigger anyway.
func (s *ContentService) triggerSync(ctx context.Context) {
	if s.syncer == nil {
		return
	}
	go func() {
		if err := s.syncer.Sync(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
			s.logger.Warn(ctx, "background sync failed", "error", err)
		}
	}()
}

// NormalizeSubjectName canonicalizes a subject name: trimmed, first letter
// upper, rest lower. "biOLOGY" and "Biology" are the same subject.
func NormalizeSubjectName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func (s *ContentService) AddSubject(ctx context.Context, name string) (*models.Subject, error) {
	name = NormalizeSubjectName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subject name is required", common.ErrValidation)
	}

	if _, err := s.repos.Subjects.GetByName(ctx, s.workspaceID, name); err == nil {
		return nil, fmt.Errorf("%w: subject %q", common.ErrDuplicateName, name)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	subject := &models.Subject{
		ID:          models.NewLocalID(),
		Name:        name,
		WorkspaceID: s.workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Subjects.Upsert(ctx, subject); err != nil {
		return nil, err
	}
	s.triggerSync(ctx)
	return subject, nil
}

func (s *ContentService) RenameSubject(ctx context.Context, id, name string) (*models.Subject, error) {
	name = NormalizeSubjectName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: subject name is required", common.ErrValidation)
	}

	subject, err := s.repos.Subjects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing, err := s.repos.Subjects.GetByName(ctx, s.workspaceID, name); err == nil && existing.ID != id {
		return nil, fmt.Errorf("%w: subject %q", common.ErrDuplicateName, name)
	} else if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	subject.Name = name
	subject.UpdatedAt = s.now()
	subject.Synced = false
	if err := s.repos.Subjects.Upsert(ctx, subject); err != nil {
		return nil, err
	}
	s.triggerSync(ctx)
	return subject, nil
}

func (s *ContentService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	return s.repos.Subjects.List(ctx)
}

// DeleteSubject removes a subject in one transaction: its cards (with their
// local scheduling state), its courses, and the subject itself, all queued
// for remote deletion. With DeleteReassign the content is moved to the
// default subject instead, which is created on first use.
func (s *ContentService) DeleteSubject(ctx context.Context, id string, strategy SubjectDeletionStrategy) error {
	if _, err := s.repos.Subjects.GetByID(ctx, id); err != nil {
		return err
	}

	var target *models.Subject
	if strategy == DeleteReassign {
		t, err := s.defaultSubject(ctx)
		if err != nil {
			return err
		}
		if t.ID == id {
			return fmt.Errorf("%w: cannot delete the default subject with reassign", common.ErrValidation)
		}
		target = t
	}

	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cardRepo := cards.NewSQLiteRepository(tx)
		courseRepo := courses.NewSQLiteRepository(tx)
		subjectRepo := subjects.NewSQLiteRepository(tx)
		deletionRepo := deletions.NewSQLiteRepository(tx)

		switch strategy {
		case DeleteCascade:
			cs, err := cardRepo.ListBySubject(ctx, id)
			if err != nil {
				return err
			}
			progressRepo := progress.NewSQLiteRepository(tx)
			historyRepo := history.NewSQLiteRepository(tx)
			for _, c := range cs {
				if err := progressRepo.DeleteByCard(ctx, c.ID); err != nil {
					return err
				}
				if err := historyRepo.DeleteByCard(ctx, c.ID); err != nil {
					return err
				}
				if err := cardRepo.Delete(ctx, c.ID); err != nil {
					return err
				}
				if err := deletionRepo.Enqueue(ctx, c.ID, common.CollectionCards); err != nil {
					return err
				}
			}

			crs, err := courseRepo.ListBySubject(ctx, id)
			if err != nil {
				return err
			}
			memoRepo := memos.NewSQLiteRepository(tx)
			for _, c := range crs {
				// Memos outlive their course, same as DeleteCourse.
				if err := memoRepo.ReassignCourse(ctx, c.ID, ""); err != nil {
					return err
				}
				if err := courseRepo.Delete(ctx, c.ID); err != nil {
					return err
				}
				if err := deletionRepo.Enqueue(ctx, c.ID, common.CollectionCourses); err != nil {
					return err
				}
			}

		case DeleteReassign:
			if err := cardRepo.ReassignSubject(ctx, id, target.ID); err != nil {
				return err
			}
			if err := courseRepo.ReassignSubject(ctx, id, target.ID); err != nil {
				return err
			}
		}

		if err := subjectRepo.Delete(ctx, id); err != nil {
			return err
		}
		return deletionRepo.Enqueue(ctx, id, common.CollectionSubjects)
	})
	if err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

// defaultSubject returns the default subject, creating it if absent.
func (s *ContentService) defaultSubject(ctx context.Context) (*models.Subject, error) {
	subject, err := s.repos.Subjects.GetByName(ctx, s.workspaceID, common.DefaultSubjectName)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	subject = &models.Subject{
		ID:          models.NewLocalID(),
		Name:        common.DefaultSubjectName,
		WorkspaceID: s.workspaceID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Subjects.Upsert(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *ContentService) AddCard(ctx context.Context, card *models.Card) (*models.Card, error) {
	now := s.now()
	card.ID = models.NewLocalID()
	card.WorkspaceID = s.workspaceID
	card.CreatedAt = now
	card.UpdatedAt = now
	card.Synced = false
	if err := s.validate.Struct(card); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Cards.Upsert(ctx, card); err != nil {
		return nil, err
	}
	s.triggerSync(ctx)
	return card, nil
}

func (s *ContentService) UpdateCard(ctx context.Context, card *models.Card) error {
	if _, err := s.repos.Cards.GetByID(ctx, card.ID); err != nil {
		return err
	}
	card.UpdatedAt = s.now()
	card.Synced = false
	if err := s.validate.Struct(card); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Cards.Upsert(ctx, card); err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

// DeleteCard removes the card and its local scheduling state in one
// transaction and queues the remote deletion. Remote progress and history
// rows follow the card through the remote store's own cascade.
func (s *ContentService) DeleteCard(ctx context.Context, id string) error {
	if _, err := s.repos.Cards.GetByID(ctx, id); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := progress.NewSQLiteRepository(tx).DeleteByCard(ctx, id); err != nil {
			return err
		}
		if err := history.NewSQLiteRepository(tx).DeleteByCard(ctx, id); err != nil {
			return err
		}
		if err := cards.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return deletions.NewSQLiteRepository(tx).Enqueue(ctx, id, common.CollectionCards)
	})
	if err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

func (s *ContentService) AddCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	now := s.now()
	course.ID = models.NewLocalID()
	course.WorkspaceID = s.workspaceID
	course.CreatedAt = now
	course.UpdatedAt = now
	course.Synced = false
	if err := s.validate.Struct(course); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Courses.Upsert(ctx, course); err != nil {
		return nil, err
	}
	s.triggerSync(ctx)
	return course, nil
}

func (s *ContentService) UpdateCourse(ctx context.Context, course *models.Course) error {
	if _, err := s.repos.Courses.GetByID(ctx, course.ID); err != nil {
		return err
	}
	course.UpdatedAt = s.now()
	course.Synced = false
	if err := s.validate.Struct(course); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Courses.Upsert(ctx, course); err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

// DeleteCourse detaches the course's memos rather than deleting them.
func (s *ContentService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.repos.Courses.GetByID(ctx, id); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := memos.NewSQLiteRepository(tx).ReassignCourse(ctx, id, ""); err != nil {
			return err
		}
		if err := courses.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return deletions.NewSQLiteRepository(tx).Enqueue(ctx, id, common.CollectionCourses)
	})
	if err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

func (s *ContentService) AddMemo(ctx context.Context, memo *models.Memo) (*models.Memo, error) {
	now := s.now()
	memo.ID = models.NewLocalID()
	memo.WorkspaceID = s.workspaceID
	memo.CreatedAt = now
	memo.UpdatedAt = now
	memo.Synced = false
	if err := s.validate.Struct(memo); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Memos.Upsert(ctx, memo); err != nil {
		return nil, err
	}
	s.triggerSync(ctx)
	return memo, nil
}

func (s *ContentService) UpdateMemo(ctx context.Context, memo *models.Memo) error {
	if _, err := s.repos.Memos.GetByID(ctx, memo.ID); err != nil {
		return err
	}
	memo.UpdatedAt = s.now()
	memo.Synced = false
	if err := s.validate.Struct(memo); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	if err := s.repos.Memos.Upsert(ctx, memo); err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

func (s *ContentService) DeleteMemo(ctx context.Context, id string) error {
	if _, err := s.repos.Memos.GetByID(ctx, id); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := memos.NewSQLiteRepository(tx).Delete(ctx, id); err != nil {
			return err
		}
		return deletions.NewSQLiteRepository(tx).Enqueue(ctx, id, common.CollectionMemos)
	})
	if err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}
