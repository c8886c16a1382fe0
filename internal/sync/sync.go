// Package sync implements the bidirectional synchronization cycle between
// the local store and the remote store: pull remote changes, push local
// ones, reconcile temporary ids, and advance the watermark.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories"
	"github.com/tbellec/flashdeck/internal/repositories/syncstate"
)

// Remote is the remote-store surface the engine needs. *remote.Client
// implements it; tests substitute a fake.
type Remote interface {
	FetchCards(ctx context.Context, workspaceID string, since time.Time) ([]models.Card, error)
	FetchSubjects(ctx context.Context, workspaceID string, since time.Time) ([]models.Subject, error)
	FetchCourses(ctx context.Context, workspaceID string, since time.Time) ([]models.Course, error)
	FetchMemos(ctx context.Context, workspaceID string, since time.Time) ([]models.Memo, error)
	FetchProgress(ctx context.Context, userID string, since time.Time) ([]models.CardProgress, error)
	FetchHistory(ctx context.Context, userID string, since time.Time) ([]models.ReviewEntry, error)

	CreateCard(ctx context.Context, c *models.Card) (*models.Card, error)
	CreateSubject(ctx context.Context, s *models.Subject) (*models.Subject, error)
	CreateCourse(ctx context.Context, c *models.Course) (*models.Course, error)
	CreateMemo(ctx context.Context, m *models.Memo) (*models.Memo, error)
	CreateProgress(ctx context.Context, p *models.CardProgress) (*models.CardProgress, error)
	CreateHistory(ctx context.Context, e *models.ReviewEntry) (*models.ReviewEntry, error)

	UpsertCards(ctx context.Context, cs []models.Card) error
	UpsertSubjects(ctx context.Context, ss []models.Subject) error
	UpsertCourses(ctx context.Context, cs []models.Course) error
	UpsertMemos(ctx context.Context, ms []models.Memo) error
	UpsertProgress(ctx context.Context, ps []models.CardProgress) error
	UpsertHistory(ctx context.Context, es []models.ReviewEntry) error

	DeleteRow(ctx context.Context, table, id string) error
}

// Engine runs sync cycles. At most one cycle runs at a time; a trigger
// arriving mid-cycle is coalesced into a single rerun after the current
// cycle finishes.
type Engine struct {
	repos       *repositories.Repositories
	remote      Remote
	logger      logging.Logger
	workspaceID string
	userID      string
	now         func() time.Time

	mu       gosync.Mutex // guards the fields below
	syncing  bool
	rerun    bool
	lastSync time.Time
}

func NewEngine(repos *repositories.Repositories, remote Remote, workspaceID, userID string, logger logging.Logger) *Engine {
	return &Engine{
		repos:       repos,
		remote:      remote,
		logger:      logger,
		workspaceID: workspaceID,
		userID:      userID,
		now:         time.Now,
	}
}

// IsSyncing reports whether a cycle is currently running.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// LastSyncAt returns the time of the last fully successful cycle, zero if
// none has completed yet.
func (e *Engine) LastSyncAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// Sync runs one full cycle: pull, push, advance watermark. If a cycle is
// already running it queues a single rerun and returns
// common.ErrSyncInProgress; the running cycle picks the rerun up when it
// finishes.
func (e *Engine) Sync(ctx context.Context) error {
	e.mu.Lock()
	if e.syncing {
		e.rerun = true
		e.mu.Unlock()
		return common.ErrSyncInProgress
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	for {
		if err := e.cycle(ctx); err != nil {
			return err
		}

		e.mu.Lock()
		again := e.rerun
		e.rerun = false
		e.mu.Unlock()
		if !again {
			return nil
		}
	}
}

// cycle is one pull+push pass. The watermark is captured before the pull
// and persisted only after both phases succeed, so a failed cycle is
// retried in full next time.
func (e *Engine) cycle(ctx context.Context) error {
	start := e.now()
	since, err := e.watermark(ctx)
	if err != nil {
		return err
	}

	e.logger.Info(ctx, "sync cycle started", "since", since)

	if err := e.pull(ctx, since); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	if err := e.push(ctx); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	if err := e.repos.SyncState.Set(ctx, syncstate.KeyLastSync, start.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	e.mu.Lock()
	e.lastSync = start
	e.mu.Unlock()

	e.logger.Info(ctx, "sync cycle finished")
	return nil
}

func (e *Engine) watermark(ctx context.Context) (time.Time, error) {
	v, err := e.repos.SyncState.Get(ctx, syncstate.KeyLastSync)
	if errors.Is(err, common.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		// A corrupt watermark degrades to a full pull.
		e.logger.Warn(ctx, "invalid sync watermark, forcing full pull", "value", v)
		return time.Time{}, nil
	}
	return t, nil
}

// Reset clears the watermark so the next cycle pulls everything. Other
// sync-state keys, such as the device id, are kept.
func (e *Engine) Reset(ctx context.Context) error {
	if err := e.repos.SyncState.Delete(ctx, syncstate.KeyLastSync); err != nil {
		return err
	}
	e.mu.Lock()
	e.lastSync = time.Time{}
	e.mu.Unlock()
	return nil
}

// Run syncs on a fixed interval until ctx is cancelled. Failed cycles are
// logged and retried on the next tick.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Sync(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
				e.logger.Warn(ctx, "periodic sync failed", "error", err)
			}
		}
	}
}
