package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories"
	"github.com/tbellec/flashdeck/internal/repositories/history"
	"github.com/tbellec/flashdeck/internal/repositories/progress"
	"github.com/tbellec/flashdeck/internal/srs"
)

// AllSubjects selects every subject when building the due queue.
const AllSubjects = "all"

// QueueCard pairs a card with its scheduling state; Progress is nil for
// cards never reviewed.
type QueueCard struct {
	Card     models.Card
	Progress *models.CardProgress
}

// SessionService builds review queues and records answers.
type SessionService struct {
	repos  *repositories.Repositories
	params *srs.Params
	logger logging.Logger
	userID string
	syncer Syncer
	now    func() time.Time
	rng    *rand.Rand
}

func NewSessionService(repos *repositories.Repositories, params *srs.Params, userID string, syncer Syncer, logger logging.Logger) *SessionService {
	return &SessionService{
		repos:  repos,
		params: params,
		logger: logger,
		userID: userID,
		syncer: syncer,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// DueCards builds the review queue. Cards with no progress count as new and
// are always due. With includeFuture false the queue holds only due cards,
// shuffled; with includeFuture true it holds every matching card, ordered
// by ascending due date with new cards first.
func (s *SessionService) DueCards(ctx context.Context, subjectIDs []string, includeFuture bool) ([]QueueCard, error) {
	candidates, err := s.matchingCards(ctx, subjectIDs)
	if err != nil {
		return nil, err
	}

	progressList, err := s.repos.Progress.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	byCard := make(map[string]*models.CardProgress, len(progressList))
	for i := range progressList {
		byCard[progressList[i].CardID] = &progressList[i]
	}

	now := s.now()
	var queue []QueueCard
	for _, c := range candidates {
		p := byCard[c.ID]
		if !includeFuture && p != nil && p.DueDate.After(now) {
			continue
		}
		queue = append(queue, QueueCard{Card: c, Progress: p})
	}

	if includeFuture {
		sort.SliceStable(queue, func(i, j int) bool {
			pi, pj := queue[i].Progress, queue[j].Progress
			if pi == nil {
				return pj != nil
			}
			if pj == nil {
				return false
			}
			return pi.DueDate.Before(pj.DueDate)
		})
	} else {
		s.rng.Shuffle(len(queue), func(i, j int) {
			queue[i], queue[j] = queue[j], queue[i]
		})
	}
	return queue, nil
}

func (s *SessionService) matchingCards(ctx context.Context, subjectIDs []string) ([]models.Card, error) {
	all := len(subjectIDs) == 0
	for _, id := range subjectIDs {
		if id == AllSubjects {
			all = true
			break
		}
	}
	if all {
		return s.repos.Cards.List(ctx)
	}

	var out []models.Card
	seen := map[string]bool{}
	for _, id := range subjectIDs {
		cs, err := s.repos.Cards.ListBySubject(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

// RecordAnswer applies a rating to a card. In cram mode nothing is
// computed or persisted: ratings are session-local feedback only. In normal
// mode the schedule is recomputed, the progress row upserted and a history
// entry appended in one transaction, then a background sync is triggered.
//
// Cards still carrying a temporary id are handled like any other: the
// history entry references the temp id and is re-pointed when the card is
// reconciled, so the first review of an offline-created card is never lost.
func (s *SessionService) RecordAnswer(ctx context.Context, cardID string, rating srs.Rating, duration time.Duration, cram bool) (*models.CardProgress, error) {
	if !rating.Valid() {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", common.ErrValidation)
	}
	if cram {
		return nil, nil
	}

	if _, err := s.repos.Cards.GetByID(ctx, cardID); err != nil {
		return nil, err
	}

	prior, err := s.repos.Progress.GetByCardAndUser(ctx, cardID, s.userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	result := s.params.Compute(prior, rating, now)

	next := &models.CardProgress{
		ID:          models.NewLocalID(),
		CardID:      cardID,
		UserID:      s.userID,
		Interval:    result.Interval,
		EaseFactor:  result.EaseFactor,
		Status:      result.Status,
		Step:        result.Step,
		DueDate:     result.DueDate,
		ReviewCount: 1,
		UpdatedAt:   now,
	}
	if prior != nil {
		next.ID = prior.ID
		next.ReviewCount = prior.ReviewCount + 1
	}

	entry := &models.ReviewEntry{
		ID:         models.NewLocalID(),
		CardID:     cardID,
		UserID:     s.userID,
		Rating:     int(rating),
		ReviewedAt: now,
		Duration:   duration,
	}

	err = dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := progress.NewSQLiteRepository(tx).Upsert(ctx, next); err != nil {
			return err
		}
		return history.NewSQLiteRepository(tx).Insert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "answer recorded",
		"card", cardID, "rating", int(rating), "status", string(next.Status), "due", next.DueDate)
	s.triggerSync(ctx)
	return next, nil
}

func (s *SessionService) triggerSync(ctx context.Context) {
	if s.syncer == nil {
		return
	}
	go func() {
		if err := s.syncer.Sync(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
			s.logger.Warn(ctx, "background sync failed", "error", err)
		}
	}()
}
