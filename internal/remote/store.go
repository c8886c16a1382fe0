package remote

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/models"
)

// Fetch methods return rows changed at or after since, scoped to the
// workspace or user. A zero since fetches everything.

func (c *Client) FetchCards(ctx context.Context, workspaceID string, since time.Time) ([]models.Card, error) {
	var rows []cardRow
	if err := c.selectRows(ctx, common.CollectionCards, sinceFilter("workspace_id", workspaceID, since), &rows); err != nil {
		return nil, err
	}
	out := make([]models.Card, len(rows))
	for i, r := range rows {
		out[i] = cardFromRow(r)
	}
	return out, nil
}

func (c *Client) FetchSubjects(ctx context.Context, workspaceID string, since time.Time) ([]models.Subject, error) {
	var rows []subjectRow
	if err := c.selectRows(ctx, common.CollectionSubjects, sinceFilter("workspace_id", workspaceID, since), &rows); err != nil {
		return nil, err
	}
	out := make([]models.Subject, len(rows))
	for i, r := range rows {
		out[i] = subjectFromRow(r)
	}
	return out, nil
}

func (c *Client) FetchCourses(ctx context.Context, workspaceID string, since time.Time) ([]models.Course, error) {
	var rows []courseRow
	if err := c.selectRows(ctx, common.CollectionCourses, sinceFilter("workspace_id", workspaceID, since), &rows); err != nil {
		return nil, err
	}
	out := make([]models.Course, len(rows))
	for i, r := range rows {
		out[i] = courseFromRow(r)
	}
	return out, nil
}

func (c *Client) FetchMemos(ctx context.Context, workspaceID string, since time.Time) ([]models.Memo, error) {
	var rows []memoRow
	if err := c.selectRows(ctx, common.CollectionMemos, sinceFilter("workspace_id", workspaceID, since), &rows); err != nil {
		return nil, err
	}
	out := make([]models.Memo, len(rows))
	for i, r := range rows {
		out[i] = memoFromRow(r)
	}
	return out, nil
}

func (c *Client) FetchProgress(ctx context.Context, userID string, since time.Time) ([]models.CardProgress, error) {
	var rows []progressRow
	if err := c.selectRows(ctx, common.CollectionProgress, sinceFilter("user_id", userID, since), &rows); err != nil {
		return nil, err
	}
	out := make([]models.CardProgress, len(rows))
	for i, r := range rows {
		out[i] = progressFromRow(r)
	}
	return out, nil
}

// FetchHistory filters on reviewed_at since the log is append-only and has
// no update timestamp.
func (c *Client) FetchHistory(ctx context.Context, userID string, since time.Time) ([]models.ReviewEntry, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	if !since.IsZero() {
		q.Set("reviewed_at", "gte."+since.UTC().Format(time.RFC3339))
	}
	var rows []historyRow
	if err := c.selectRows(ctx, common.CollectionHistory, q, &rows); err != nil {
		return nil, err
	}
	out := make([]models.ReviewEntry, len(rows))
	for i, r := range rows {
		out[i] = historyFromRow(r)
	}
	return out, nil
}

// Create methods insert one row and return the stored row, which carries
// the server-assigned id when the local record still had a temporary one.

func (c *Client) CreateCard(ctx context.Context, card *models.Card) (*models.Card, error) {
	var rows []cardRow
	if err := c.insertRow(ctx, common.CollectionCards, cardToRow(card), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := cardFromRow(rows[0])
	return &created, nil
}

func (c *Client) CreateSubject(ctx context.Context, subject *models.Subject) (*models.Subject, error) {
	var rows []subjectRow
	if err := c.insertRow(ctx, common.CollectionSubjects, subjectToRow(subject), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := subjectFromRow(rows[0])
	return &created, nil
}

func (c *Client) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	var rows []courseRow
	if err := c.insertRow(ctx, common.CollectionCourses, courseToRow(course), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := courseFromRow(rows[0])
	return &created, nil
}

func (c *Client) CreateMemo(ctx context.Context, memo *models.Memo) (*models.Memo, error) {
	var rows []memoRow
	if err := c.insertRow(ctx, common.CollectionMemos, memoToRow(memo), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := memoFromRow(rows[0])
	return &created, nil
}

func (c *Client) CreateProgress(ctx context.Context, p *models.CardProgress) (*models.CardProgress, error) {
	var rows []progressRow
	if err := c.insertRow(ctx, common.CollectionProgress, progressToRow(p), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := progressFromRow(rows[0])
	return &created, nil
}

func (c *Client) CreateHistory(ctx context.Context, e *models.ReviewEntry) (*models.ReviewEntry, error) {
	var rows []historyRow
	if err := c.insertRow(ctx, common.CollectionHistory, historyToRow(e), &rows); err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, fmt.Errorf("expected 1 created row, got %d", len(rows))
	}
	created := historyFromRow(rows[0])
	return &created, nil
}

// Upsert methods push batches of locally modified rows that already carry
// permanent ids.

func (c *Client) UpsertCards(ctx context.Context, cards []models.Card) error {
	rows := make([]cardRow, len(cards))
	for i := range cards {
		rows[i] = cardToRow(&cards[i])
	}
	return c.upsertRows(ctx, common.CollectionCards, rows)
}

func (c *Client) UpsertSubjects(ctx context.Context, subjects []models.Subject) error {
	rows := make([]subjectRow, len(subjects))
	for i := range subjects {
		rows[i] = subjectToRow(&subjects[i])
	}
	return c.upsertRows(ctx, common.CollectionSubjects, rows)
}

func (c *Client) UpsertCourses(ctx context.Context, courses []models.Course) error {
	rows := make([]courseRow, len(courses))
	for i := range courses {
		rows[i] = courseToRow(&courses[i])
	}
	return c.upsertRows(ctx, common.CollectionCourses, rows)
}

func (c *Client) UpsertMemos(ctx context.Context, memos []models.Memo) error {
	rows := make([]memoRow, len(memos))
	for i := range memos {
		rows[i] = memoToRow(&memos[i])
	}
	return c.upsertRows(ctx, common.CollectionMemos, rows)
}

func (c *Client) UpsertProgress(ctx context.Context, ps []models.CardProgress) error {
	rows := make([]progressRow, len(ps))
	for i := range ps {
		rows[i] = progressToRow(&ps[i])
	}
	return c.upsertRows(ctx, common.CollectionProgress, rows)
}

func (c *Client) UpsertHistory(ctx context.Context, es []models.ReviewEntry) error {
	rows := make([]historyRow, len(es))
	for i := range es {
		rows[i] = historyToRow(&es[i])
	}
	return c.upsertRows(ctx, common.CollectionHistory, rows)
}
