package models

import "time"

// Status is the scheduling stage of a card for one user.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
)

// CardProgress tracks per-user scheduling state for one card.
// At most one progress record exists per (card, user) pair.
type CardProgress struct {
	ID          string
	CardID      string
	UserID      string
	Interval    float64 // days
	EaseFactor  float64
	Status      Status
	Step        int
	DueDate     time.Time
	ReviewCount int
	UpdatedAt   time.Time
	Synced      bool
}

// ReviewEntry is one review event. Append-only, never updated.
type ReviewEntry struct {
	ID         string
	CardID     string
	UserID     string
	Rating     int `validate:"gte=1,lte=5"`
	ReviewedAt time.Time
	Duration   time.Duration
	Synced     bool
}
