package common

// Collection names as known to the remote store. The local schema uses the
// same names so that pending deletions and realtime events map one-to-one.
const (
	CollectionCards    = "cards"
	CollectionSubjects = "subjects"
	CollectionCourses  = "courses"
	CollectionMemos    = "memos"
	CollectionProgress = "user_card_progress"
	CollectionHistory  = "review_history"
)

// DefaultSubjectName is the subject cards are reassigned to when their
// subject is deleted with the reassign strategy.
const DefaultSubjectName = "General"
