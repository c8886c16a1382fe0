// Package models defines the record types persisted in the local store and
// synchronized with the remote store, plus the temporary-id scheme for
// records created offline.
package models

import "time"

// Card is a question/answer flashcard scoped to a workspace.
// QuestionImage and AnswerImage hold optional data-URI payloads.
type Card struct {
	ID            string
	Question      string `validate:"required"`
	Answer        string `validate:"required"`
	QuestionImage string
	AnswerImage   string
	SubjectID     string `validate:"required"`
	WorkspaceID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Synced is false whenever the record carries local changes the remote
	// store has not acknowledged yet. The flag is the retry mechanism: every
	// push pass picks up all unsynced records again.
	Synced bool
}

// Subject groups cards and courses. Name is unique per workspace,
// case-insensitively.
type Subject struct {
	ID          string
	Name        string `validate:"required"`
	WorkspaceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Synced      bool
}

// Course is a rich-text document attached to a subject.
type Course struct {
	ID          string
	Title       string `validate:"required"`
	Content     string
	SubjectID   string `validate:"required"`
	WorkspaceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Synced      bool
}

// Memo is a short pinnable note, optionally attached to a course.
type Memo struct {
	ID          string
	Content     string `validate:"required"`
	Color       string
	Pinned      bool
	CourseID    string
	Position    int
	WorkspaceID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Synced      bool
}

// PendingDeletion queues a local delete until the remote store confirms it.
// Rows are removed only after the remote call succeeds (or is moot because
// the id never existed remotely).
type PendingDeletion struct {
	ID         string
	Collection string
}
