package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories"
)

func TestExportImport_RoundTrip(t *testing.T) {
	svc, _ := setupContent(t)
	ctx := context.Background()

	subject, err := svc.AddSubject(ctx, "Biology")
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, &models.Card{Question: "Q1", Answer: "A1", SubjectID: subject.ID})
	require.NoError(t, err)
	_, err = svc.AddCard(ctx, &models.Card{Question: "Q2", Answer: "A2", SubjectID: subject.ID})
	require.NoError(t, err)
	_, err = svc.AddCourse(ctx, &models.Course{Title: "Cells", Content: "<p>x</p>", SubjectID: subject.ID})
	require.NoError(t, err)

	doc, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Cards, 2)
	require.Len(t, doc.Courses, 1)
	assert.Equal(t, "Biology", doc.Cards[0].SubjectName)

	// Import into an empty store reproduces the content.
	fresh, err := repositories.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { fresh.Close() })
	target := NewContentService(fresh, "ws2", nil, svc.logger)

	require.NoError(t, target.Import(ctx, doc))

	cards, err := fresh.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	courses, err := fresh.Courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Cells", courses[0].Title)

	imported, err := fresh.Subjects.GetByName(ctx, "ws2", "Biology")
	require.NoError(t, err)
	assert.Equal(t, imported.ID, cards[0].SubjectID)

	// Importing the same document again is idempotent.
	require.NoError(t, target.Import(ctx, doc))
	cards, err = fresh.Cards.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestImportText(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	text := "What is ATP?#Adenosine triphosphate#biology\n" +
		"\n" +
		"Powerhouse of the cell?#Mitochondria#BIOLOGY\n" +
		"2+2?#4\n"

	n, err := svc.ImportText(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Both biology spellings resolve to one subject.
	subject, err := repos.Subjects.GetByName(ctx, "ws1", "Biology")
	require.NoError(t, err)
	bio, err := repos.Cards.ListBySubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Len(t, bio, 2)

	// The line without a subject lands in the default one.
	def, err := repos.Subjects.GetByName(ctx, "ws1", common.DefaultSubjectName)
	require.NoError(t, err)
	rest, err := repos.Cards.ListBySubject(ctx, def.ID)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestImportText_MalformedLineFailsBeforeWriting(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	_, err := svc.ImportText(ctx, "only a question\n")
	assert.ErrorIs(t, err, common.ErrValidation)

	cards, err := repos.Cards.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestImportText_MalformedMidBatchWritesNothing(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	// Valid lines before the malformed one must not leak any writes,
	// auto-created subjects included.
	text := "What is ATP?#Adenosine triphosphate#chemistry\n" +
		"malformed line without delimiter\n"

	_, err := svc.ImportText(ctx, text)
	assert.ErrorIs(t, err, common.ErrValidation)

	cards, err := repos.Cards.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	subjects, err := repos.Subjects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestImport_InvalidRecordWritesNothing(t *testing.T) {
	svc, repos := setupContent(t)
	ctx := context.Background()

	doc := &ExportDocument{
		Cards: []ExportCard{
			{Question: "Q1", Answer: "A1", SubjectName: "History"},
			{Question: "Q2", SubjectName: "History"}, // no answer
		},
	}

	err := svc.Import(ctx, doc)
	assert.ErrorIs(t, err, common.ErrValidation)

	cards, err := repos.Cards.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	subjects, err := repos.Subjects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}
