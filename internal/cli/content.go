package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/models"
	"github.com/tbellec/flashdeck/internal/services"
)

// Subjects prints every subject with its id.
func (a *App) Subjects(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	list, err := a.content.ListSubjects(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No subjects yet")
		return nil
	}
	for _, s := range list {
		printlnFn(fmt.Sprintf("%s  %s", s.ID, s.Name))
	}
	return nil
}

// AddSubject prompts for a name and creates the subject.
func (a *App) AddSubject(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Subject name", os.Stdout)
	if err != nil {
		return err
	}
	s, err := a.content.AddSubject(ctx, name)
	if err != nil {
		return err
	}
	printlnFn("Created subject", s.Name, "with id", s.ID)
	return nil
}

// DeleteSubject prompts for a subject id and a deletion strategy. With
// "reassign" the subject's cards and courses move to the default subject,
// otherwise they are deleted with it.
func (a *App) DeleteSubject(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Subject id to delete", os.Stdout)
	if err != nil {
		return err
	}
	choice, err := getSimpleText(a.reader, "Strategy: (c)ascade or (r)eassign to "+common.DefaultSubjectName, os.Stdout)
	if err != nil {
		return err
	}
	strategy := services.DeleteCascade
	if choice == "r" || choice == "reassign" {
		strategy = services.DeleteReassign
	}
	if err := a.content.DeleteSubject(ctx, id, strategy); err != nil {
		return err
	}
	printlnFn("Deleted")
	return nil
}

// Cards prints every card with its id and subject.
func (a *App) Cards(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	subjects, err := a.content.ListSubjects(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	list, err := a.repos.Cards.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No cards yet")
		return nil
	}
	for _, c := range list {
		printlnFn(fmt.Sprintf("%s  [%s]  %s", c.ID, names[c.SubjectID], c.Question))
	}
	return nil
}

// AddCard prompts for a subject name, a question and an answer. The subject
// is created on the fly when it does not exist yet; an empty name picks the
// default subject.
func (a *App) AddCard(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	subjectName, err := getSimpleText(a.reader, "Subject (empty for "+common.DefaultSubjectName+")", os.Stdout)
	if err != nil {
		return err
	}
	question, err := getSimpleText(a.reader, "Question", os.Stdout)
	if err != nil {
		return err
	}
	answer, err := getMultiline(a.reader, "Answer", os.Stdout)
	if err != nil {
		return err
	}

	subjectID, err := a.findOrCreateSubject(ctx, subjectName)
	if err != nil {
		return err
	}

	card, err := a.content.AddCard(ctx, &models.Card{
		Question:  question,
		Answer:    answer,
		SubjectID: subjectID,
	})
	if err != nil {
		return err
	}
	printlnFn("Created card with id", card.ID)
	return nil
}

// DeleteCard prompts for a card id and removes the card together with its
// scheduling state.
func (a *App) DeleteCard(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Card id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.content.DeleteCard(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted")
	return nil
}

// Courses prints every course with its id and subject.
func (a *App) Courses(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	subjects, err := a.content.ListSubjects(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	list, err := a.repos.Courses.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No courses yet")
		return nil
	}
	for _, c := range list {
		printlnFn(fmt.Sprintf("%s  [%s]  %s", c.ID, names[c.SubjectID], c.Title))
	}
	return nil
}

// AddCourse prompts for a subject, a title and the course text.
func (a *App) AddCourse(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	subjectName, err := getSimpleText(a.reader, "Subject (empty for "+common.DefaultSubjectName+")", os.Stdout)
	if err != nil {
		return err
	}
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content", os.Stdout)
	if err != nil {
		return err
	}

	subjectID, err := a.findOrCreateSubject(ctx, subjectName)
	if err != nil {
		return err
	}

	course, err := a.content.AddCourse(ctx, &models.Course{
		Title:     title,
		Content:   content,
		SubjectID: subjectID,
	})
	if err != nil {
		return err
	}
	printlnFn("Created course with id", course.ID)
	return nil
}

// DeleteCourse prompts for a course id; attached memos are kept and
// detached.
func (a *App) DeleteCourse(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Course id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.content.DeleteCourse(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted")
	return nil
}

// Memos prints every memo, pinned ones first.
func (a *App) Memos(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	list, err := a.repos.Memos.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("No memos yet")
		return nil
	}
	for _, m := range list {
		marker := " "
		if m.Pinned {
			marker = "*"
		}
		printlnFn(fmt.Sprintf("%s %s  %s", marker, m.ID, m.Content))
	}
	return nil
}

// AddMemo prompts for the memo text and an optional course id to attach it
// to.
func (a *App) AddMemo(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	content, err := getSimpleText(a.reader, "Memo text", os.Stdout)
	if err != nil {
		return err
	}
	courseID, err := getSimpleText(a.reader, "Course id (empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	memo, err := a.content.AddMemo(ctx, &models.Memo{
		Content:  content,
		CourseID: courseID,
	})
	if err != nil {
		return err
	}
	printlnFn("Created memo with id", memo.ID)
	return nil
}

// DeleteMemo prompts for a memo id and removes it.
func (a *App) DeleteMemo(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := getSimpleText(a.reader, "Memo id to delete", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.content.DeleteMemo(ctx, id); err != nil {
		return err
	}
	printlnFn("Deleted")
	return nil
}

// findOrCreateSubject resolves a subject name, case-insensitively, to an
// id, creating the subject when no match exists. An empty name resolves to
// the default subject.
func (a *App) findOrCreateSubject(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = common.DefaultSubjectName
	}
	normalized := services.NormalizeSubjectName(name)
	list, err := a.content.ListSubjects(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range list {
		if s.Name == normalized {
			return s.ID, nil
		}
	}
	s, err := a.content.AddSubject(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateName) {
			// Lost a race with a concurrent pull, look again.
			list, lerr := a.content.ListSubjects(ctx)
			if lerr != nil {
				return "", lerr
			}
			for _, existing := range list {
				if existing.Name == normalized {
					return existing.ID, nil
				}
			}
		}
		return "", err
	}
	return s.ID, nil
}
