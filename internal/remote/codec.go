// Package remote talks to the hosted PostgREST-style API: row codecs,
// an HTTP client, access-token claims, and the realtime change feed.
//
// Wire rows use the remote schema's column names, which differ from the
// local field names in a few places (easiness, next_review, is_pinned,
// duration_ms). Outbound rows for records still carrying a temporary local
// id omit the id column entirely so the remote store assigns a permanent
// one.
package remote

import (
	"time"

	"github.com/tbellec/flashdeck/internal/models"
)

type cardRow struct {
	ID            string    `json:"id,omitempty"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	QuestionImage string    `json:"question_image,omitempty"`
	AnswerImage   string    `json:"answer_image,omitempty"`
	SubjectID     string    `json:"subject_id"`
	WorkspaceID   string    `json:"workspace_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func cardToRow(c *models.Card) cardRow {
	return cardRow{
		ID:            outboundID(c.ID),
		Question:      c.Question,
		Answer:        c.Answer,
		QuestionImage: c.QuestionImage,
		AnswerImage:   c.AnswerImage,
		SubjectID:     c.SubjectID,
		WorkspaceID:   c.WorkspaceID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func cardFromRow(r cardRow) models.Card {
	return models.Card{
		ID:            r.ID,
		Question:      r.Question,
		Answer:        r.Answer,
		QuestionImage: r.QuestionImage,
		AnswerImage:   r.AnswerImage,
		SubjectID:     r.SubjectID,
		WorkspaceID:   r.WorkspaceID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Synced:        true,
	}
}

type subjectRow struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func subjectToRow(s *models.Subject) subjectRow {
	return subjectRow{
		ID:          outboundID(s.ID),
		Name:        s.Name,
		WorkspaceID: s.WorkspaceID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func subjectFromRow(r subjectRow) models.Subject {
	return models.Subject{
		ID:          r.ID,
		Name:        r.Name,
		WorkspaceID: r.WorkspaceID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Synced:      true,
	}
}

type courseRow struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	SubjectID   string    `json:"subject_id"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func courseToRow(c *models.Course) courseRow {
	return courseRow{
		ID:          outboundID(c.ID),
		Title:       c.Title,
		Content:     c.Content,
		SubjectID:   c.SubjectID,
		WorkspaceID: c.WorkspaceID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func courseFromRow(r courseRow) models.Course {
	return models.Course{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		SubjectID:   r.SubjectID,
		WorkspaceID: r.WorkspaceID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Synced:      true,
	}
}

type memoRow struct {
	ID          string    `json:"id,omitempty"`
	Content     string    `json:"content"`
	Color       string    `json:"color"`
	IsPinned    bool      `json:"is_pinned"`
	CourseID    *string   `json:"course_id"`
	Position    int       `json:"position"`
	WorkspaceID string    `json:"workspace_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func memoToRow(m *models.Memo) memoRow {
	var courseID *string
	if m.CourseID != "" {
		courseID = &m.CourseID
	}
	return memoRow{
		ID:          outboundID(m.ID),
		Content:     m.Content,
		Color:       m.Color,
		IsPinned:    m.Pinned,
		CourseID:    courseID,
		Position:    m.Position,
		WorkspaceID: m.WorkspaceID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func memoFromRow(r memoRow) models.Memo {
	m := models.Memo{
		ID:          r.ID,
		Content:     r.Content,
		Color:       r.Color,
		Pinned:      r.IsPinned,
		Position:    r.Position,
		WorkspaceID: r.WorkspaceID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Synced:      true,
	}
	if r.CourseID != nil {
		m.CourseID = *r.CourseID
	}
	return m
}

type progressRow struct {
	ID          string    `json:"id,omitempty"`
	CardID      string    `json:"card_id"`
	UserID      string    `json:"user_id"`
	Interval    float64   `json:"interval"`
	Easiness    float64   `json:"easiness"`
	Status      string    `json:"status"`
	Step        int       `json:"step"`
	NextReview  time.Time `json:"next_review"`
	ReviewCount int       `json:"review_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func progressToRow(p *models.CardProgress) progressRow {
	return progressRow{
		ID:          outboundID(p.ID),
		CardID:      p.CardID,
		UserID:      p.UserID,
		Interval:    p.Interval,
		Easiness:    p.EaseFactor,
		Status:      string(p.Status),
		Step:        p.Step,
		NextReview:  p.DueDate,
		ReviewCount: p.ReviewCount,
		UpdatedAt:   p.UpdatedAt,
	}
}

func progressFromRow(r progressRow) models.CardProgress {
	return models.CardProgress{
		ID:          r.ID,
		CardID:      r.CardID,
		UserID:      r.UserID,
		Interval:    r.Interval,
		EaseFactor:  r.Easiness,
		Status:      models.Status(r.Status),
		Step:        r.Step,
		DueDate:     r.NextReview,
		ReviewCount: r.ReviewCount,
		UpdatedAt:   r.UpdatedAt,
		Synced:      true,
	}
}

type historyRow struct {
	ID         string    `json:"id,omitempty"`
	CardID     string    `json:"card_id"`
	UserID     string    `json:"user_id"`
	Rating     int       `json:"rating"`
	ReviewedAt time.Time `json:"reviewed_at"`
	DurationMS int64     `json:"duration_ms"`
}

func historyToRow(e *models.ReviewEntry) historyRow {
	return historyRow{
		ID:         outboundID(e.ID),
		CardID:     e.CardID,
		UserID:     e.UserID,
		Rating:     e.Rating,
		ReviewedAt: e.ReviewedAt,
		DurationMS: e.Duration.Milliseconds(),
	}
}

func historyFromRow(r historyRow) models.ReviewEntry {
	return models.ReviewEntry{
		ID:         r.ID,
		CardID:     r.CardID,
		UserID:     r.UserID,
		Rating:     r.Rating,
		ReviewedAt: r.ReviewedAt,
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
		Synced:     true,
	}
}

// outboundID blanks temporary ids so the id column is omitted from the
// serialized row and the remote store assigns a permanent one.
func outboundID(id string) string {
	if models.IsLocalID(id) {
		return ""
	}
	return id
}
