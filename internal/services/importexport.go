package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/dbx"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/repositories/cards"
	"github.com/tbellec/flashdeck/internal/repositories/courses"
	"github.com/tbellec/flashdeck/internal/repositories/subjects"
)

// ExportDocument is the portable JSON shape: cards and courses with the
// subject name denormalized onto each record, so the document is importable
// into a workspace with different subject ids.
type ExportDocument struct {
	Cards   []ExportCard   `json:"cards"`
	Courses []ExportCourse `json:"courses"`
}

type ExportCard struct {
	ID            string `json:"id,omitempty"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	QuestionImage string `json:"questionImage,omitempty"`
	AnswerImage   string `json:"answerImage,omitempty"`
	SubjectName   string `json:"subjectName"`
}

type ExportCourse struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	SubjectName string `json:"subjectName"`
}

// Export snapshots all cards and courses.
func (s *ContentService) Export(ctx context.Context) (*ExportDocument, error) {
	subjectList, err := s.repos.Subjects.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(subjectList))
	for _, subj := range subjectList {
		names[subj.ID] = subj.Name
	}

	allCards, err := s.repos.Cards.List(ctx)
	if err != nil {
		return nil, err
	}
	allCourses, err := s.repos.Courses.List(ctx)
	if err != nil {
		return nil, err
	}

	doc := &ExportDocument{
		Cards:   make([]ExportCard, 0, len(allCards)),
		Courses: make([]ExportCourse, 0, len(allCourses)),
	}
	for _, c := range allCards {
		doc.Cards = append(doc.Cards, ExportCard{
			ID:            c.ID,
			Question:      c.Question,
			Answer:        c.Answer,
			QuestionImage: c.QuestionImage,
			AnswerImage:   c.AnswerImage,
			SubjectName:   names[c.SubjectID],
		})
	}
	for _, c := range allCourses {
		doc.Courses = append(doc.Courses, ExportCourse{
			ID:          c.ID,
			Title:       c.Title,
			Content:     c.Content,
			SubjectName: names[c.SubjectID],
		})
	}
	return doc, nil
}

// Import bulk-upserts the document's cards and courses. Records keeping
// their id are upserted in place, so importing the same document twice is
// idempotent; records without an id get a fresh temporary one. Unknown
// subject names are created on the fly. The document is validated in full
// first and all writes, subject creation included, happen in one
// transaction, so a bad document leaves the store untouched.
func (s *ContentService) Import(ctx context.Context, doc *ExportDocument) error {
	for _, ec := range doc.Cards {
		if ec.Question == "" || ec.Answer == "" {
			return fmt.Errorf("%w: card needs a question and an answer", common.ErrValidation)
		}
	}
	for _, ec := range doc.Courses {
		if ec.Title == "" {
			return fmt.Errorf("%w: course needs a title", common.ErrValidation)
		}
	}

	now := s.now()
	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		resolve := s.subjectResolver(subjects.NewSQLiteRepository(tx))

		importedCards := make([]models.Card, 0, len(doc.Cards))
		for _, ec := range doc.Cards {
			subjectID, err := resolve(ctx, ec.SubjectName)
			if err != nil {
				return err
			}
			id := ec.ID
			if id == "" {
				id = models.NewLocalID()
			}
			importedCards = append(importedCards, models.Card{
				ID:            id,
				Question:      ec.Question,
				Answer:        ec.Answer,
				QuestionImage: ec.QuestionImage,
				AnswerImage:   ec.AnswerImage,
				SubjectID:     subjectID,
				WorkspaceID:   s.workspaceID,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		importedCourses := make([]models.Course, 0, len(doc.Courses))
		for _, ec := range doc.Courses {
			subjectID, err := resolve(ctx, ec.SubjectName)
			if err != nil {
				return err
			}
			id := ec.ID
			if id == "" {
				id = models.NewLocalID()
			}
			importedCourses = append(importedCourses, models.Course{
				ID:          id,
				Title:       ec.Title,
				Content:     ec.Content,
				SubjectID:   subjectID,
				WorkspaceID: s.workspaceID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		if err := cards.NewSQLiteRepository(tx).BulkUpsert(ctx, importedCards); err != nil {
			return err
		}
		return courses.NewSQLiteRepository(tx).BulkUpsert(ctx, importedCourses)
	})
	if err != nil {
		return err
	}
	s.triggerSync(ctx)
	return nil
}

// BulkImportDelimiter separates the fields of one card per line:
// question, answer, subject name.
const BulkImportDelimiter = "#"

// bulkLine is one parsed line of the delimited bulk format.
type bulkLine struct {
	question    string
	answer      string
	subjectName string
}

// ImportText parses the delimited bulk format and inserts the cards,
// creating missing subjects once per batch regardless of how many lines
// reference them. Returns the number of cards inserted. Blank lines are
// skipped. The whole text is parsed before anything is written and the
// writes share one transaction, so a malformed line anywhere in the batch
// leaves the store untouched.
func (s *ContentService) ImportText(ctx context.Context, text string) (int, error) {
	var parsed []bulkLine
	scanner := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, BulkImportDelimiter)
		if len(fields) < 2 {
			return 0, fmt.Errorf("%w: line %d needs question%sanswer", common.ErrValidation, line, BulkImportDelimiter)
		}
		question := strings.TrimSpace(fields[0])
		answer := strings.TrimSpace(fields[1])
		subjectName := ""
		if len(fields) > 2 {
			subjectName = fields[2]
		}
		if question == "" || answer == "" {
			return 0, fmt.Errorf("%w: line %d has an empty field", common.ErrValidation, line)
		}
		parsed = append(parsed, bulkLine{question: question, answer: answer, subjectName: subjectName})
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read import text: %w", err)
	}

	now := s.now()
	err := dbx.WithTx(ctx, s.repos.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		resolve := s.subjectResolver(subjects.NewSQLiteRepository(tx))

		batch := make([]models.Card, 0, len(parsed))
		for _, l := range parsed {
			subjectID, err := resolve(ctx, l.subjectName)
			if err != nil {
				return err
			}
			batch = append(batch, models.Card{
				ID:          models.NewLocalID(),
				Question:    l.question,
				Answer:      l.answer,
				SubjectID:   subjectID,
				WorkspaceID: s.workspaceID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
		return cards.NewSQLiteRepository(tx).BulkUpsert(ctx, batch)
	})
	if err != nil {
		return 0, err
	}
	s.triggerSync(ctx)
	return len(parsed), nil
}

// subjectResolver maps subject names to ids against the given repository,
// creating missing subjects and caching lookups so one batch never creates
// the same subject twice. Names are normalized first; an empty name
// resolves to the default subject. Callers importing in a transaction pass
// a repository bound to it, keeping subject creation atomic with the rest
// of the batch.
func (s *ContentService) subjectResolver(repo subjects.Repository) func(ctx context.Context, name string) (string, error) {
	cache := map[string]string{}
	return func(ctx context.Context, name string) (string, error) {
		name = NormalizeSubjectName(name)
		if name == "" {
			name = common.DefaultSubjectName
		}
		if id, ok := cache[name]; ok {
			return id, nil
		}

		subject, err := repo.GetByName(ctx, s.workspaceID, name)
		if err == nil {
			cache[name] = subject.ID
			return subject.ID, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return "", err
		}

		now := s.now()
		created := &models.Subject{
			ID:          models.NewLocalID(),
			Name:        name,
			WorkspaceID: s.workspaceID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Upsert(ctx, created); err != nil {
			return "", err
		}
		cache[name] = created.ID
		return created.ID, nil
	}
}
