package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories"
)

func setupContent(t *testing.T) (*ContentService, *repositories.Repositories) {
	repos, err := repositories.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	svc := NewContentService(repos, "ws1", nil, logging.NewNopLogger())
	return svc, repos
}

func TestNormalizeSubjectName(t *testing.T) {
	assert.Equal(t, "Biology", NormalizeSubjectName("  biOLOGY "))
	assert.Equal(t, "École", NormalizeSubjectName("éCOLE"))
	assert.Equal(t, "", NormalizeSubjectName("   "))
}

func TestAddSubject(t *testing.T) {
	svc, _ := setupContent(t)
	ctx := context.Background()

	subject, err := svc.AddSubject(ctx, "biOLOGY")
	require.NoError(t, err)
	assert.Equal(t, "Biology", subject.Name)
	assert.True(t, models.IsLocalID(subject.ID))
	assert.False(t, subject.Synced)

	_, err = svc.AddSubject(ctx, "BIOLOGY")
	assert.ErrorIs(t, err, common.ErrDuplicateName)

	_, err = svc.AddSubject(ctx, "  ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAddCard_Validation(t *testing.T) {
	svc, _ := setupContent(t)
	ctx := context.Background()

	_, err := svc.AddCard(ctx, &models.Card{Question: "", Answer: "A", SubjectID: "s1"})
	assert.ErrorIs(t, err, common.ErrValidation)

	card, err := svc.AddCard(ctx, &models.Card{Question: "Q", Answer: "A", SubjectID: "s1"})
	require.NoError(t, err)
	assert.True(t, models.IsLocalID(card.ID))
	assert.Equal(t, "ws1", card.WorkspaceID)
}

func TestUpdateCard_MarksDirty(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	card, err := svc.AddCard(ctx, &models.Card{Question: "Q", Answer: "A", SubjectID: "s1"})
	require.NoError(t, err)
	require.NoError(t, repos.Cards.MarkSynced(ctx, []string{card.ID}))

	card.Answer = "B"
	require.NoError(t, svc.UpdateCard(ctx, card))

	got, err := repos.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Answer)
	assert.False(t, got.Synced)
}

func TestDeleteCard_RemovesStateAndQueuesDeletion(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()
	now := time.Now().UTC()

	card, err := svc.AddCard(ctx, &models.Card{Question: "Q", Answer: "A", SubjectID: "s1"})
	require.NoError(t, err)
	require.NoError(t, repos.Progress.Upsert(ctx, &models.CardProgress{
		ID: "p1", CardID: card.ID, UserID: "u1", DueDate: now, UpdatedAt: now,
	}))
	require.NoError(t, repos.History.Insert(ctx, &models.ReviewEntry{
		ID: "h1", CardID: card.ID, UserID: "u1", Rating: 3, ReviewedAt: now,
	}))

	require.NoError(t, svc.DeleteCard(ctx, card.ID))

	_, err = repos.Cards.GetByID(ctx, card.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repos.Progress.GetByCardAndUser(ctx, card.ID, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	pending, err := repos.Deletions.List(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, common.CollectionCards, pending[0].Collection)
}

func TestDeleteSubject_Cascade(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()
	now := time.Now().UTC()

	subject, err := svc.AddSubject(ctx, "Biology")
	require.NoError(t, err)
	card, err := svc.AddCard(ctx, &models.Card{Question: "Q", Answer: "A", SubjectID: subject.ID})
	require.NoError(t, err)
	course, err := svc.AddCourse(ctx, &models.Course{Title: "T", SubjectID: subject.ID})
	require.NoError(t, err)
	memo, err := svc.AddMemo(ctx, &models.Memo{Content: "note", CourseID: course.ID})
	require.NoError(t, err)
	require.NoError(t, repos.Progress.Upsert(ctx, &models.CardProgress{
		ID: "p1", CardID: card.ID, UserID: "u1", DueDate: now, UpdatedAt: now,
	}))

	require.NoError(t, svc.DeleteSubject(ctx, subject.ID, DeleteCascade))

	_, err = repos.Subjects.GetByID(ctx, subject.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repos.Cards.GetByID(ctx, card.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repos.Courses.GetByID(ctx, course.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repos.Progress.GetByCardAndUser(ctx, card.ID, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// The memo survives but no longer references the deleted course.
	gotMemo, err := repos.Memos.GetByID(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "", gotMemo.CourseID)

	pending, err := repos.Deletions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestDeleteSubject_ReassignToDefault(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	subject, err := svc.AddSubject(ctx, "Biology")
	require.NoError(t, err)
	card, err := svc.AddCard(ctx, &models.Card{Question: "Q", Answer: "A", SubjectID: subject.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSubject(ctx, subject.ID, DeleteReassign))

	def, err := repos.Subjects.GetByName(ctx, "ws1", common.DefaultSubjectName)
	require.NoError(t, err)

	got, err := repos.Cards.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, def.ID, got.SubjectID)
	assert.False(t, got.Synced)
}

func TestDeleteCourse_DetachesMemos(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	course, err := svc.AddCourse(ctx, &models.Course{Title: "T", SubjectID: "s1"})
	require.NoError(t, err)
	memo, err := svc.AddMemo(ctx, &models.Memo{Content: "note", CourseID: course.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCourse(ctx, course.ID))

	got, err := repos.Memos.GetByID(ctx, memo.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.CourseID)
}
