package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tbellec/flashdeck/internal/config"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/remote"
	"github.com/tbellec/flashdeck/internal/repositories"
	"github.com/tbellec/flashdeck/internal/services"
	"github.com/tbellec/flashdeck/internal/srs"
)

// newTestApp assembles a logged-in App over a fresh in-memory store. The
// sync trigger is disabled so command tests never touch the network.
func newTestApp(t *testing.T) *App {
	t.Helper()
	ctx := context.Background()

	repos, err := repositories.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	logger := logging.NewNopLogger()
	claims := &remote.TokenClaims{UserID: "u1", WorkspaceID: "ws1", Email: "u1@example.com"}

	return &App{
		config:  &config.Config{},
		repos:   repos,
		client:  remote.NewClient("http://127.0.0.1:0", "key", logger),
		logger:  logger,
		claims:  claims,
		content: services.NewContentService(repos, claims.WorkspaceID, nil, logger),
		session: services.NewSessionService(repos, srs.DefaultParams(), claims.UserID, nil, logger),
		reader:  bufio.NewReader(strings.NewReader("")),
	}
}

// scriptText replaces the single-line input seam with a scripted sequence.
func scriptText(t *testing.T, answers ...string) {
	t.Helper()
	orig := getSimpleText
	i := 0
	getSimpleText = func(r *bufio.Reader, prompt string, w io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	t.Cleanup(func() { getSimpleText = orig })
}

// scriptMultiline replaces the multiline input seam with a scripted sequence.
func scriptMultiline(t *testing.T, answers ...string) {
	t.Helper()
	orig := getMultiline
	i := 0
	getMultiline = func(r *bufio.Reader, prompt string, w io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		a := answers[i]
		i++
		return a, nil
	}
	t.Cleanup(func() { getMultiline = orig })
}

func TestCommands_RequireLogin(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	app.claims = nil

	require.Error(t, app.Subjects(context.Background()))
	require.Error(t, app.Study(context.Background(), false))
	require.Error(t, app.Export(context.Background(), "x.json"))
}

func TestAddSubjectAndList(t *testing.T) {
	lines := silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t, "physics")
	require.NoError(t, app.AddSubject(ctx))
	require.NoError(t, app.Subjects(ctx))

	joined := strings.Join(*lines, "\n")
	require.Contains(t, joined, "Physics")
}

func TestAddCard_CreatesSubjectOnTheFly(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t, "biology", "What is ATP?")
	scriptMultiline(t, "Adenosine triphosphate")
	require.NoError(t, app.AddCard(ctx))

	all, err := app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "What is ATP?", all[0].Question)
	require.Equal(t, "Adenosine triphosphate", all[0].Answer)

	subj, err := app.repos.Subjects.GetByName(ctx, "ws1", "Biology")
	require.NoError(t, err)
	require.Equal(t, subj.ID, all[0].SubjectID)

	// A second card with the same subject reuses it.
	scriptText(t, "BIOLOGY", "What is DNA?")
	scriptMultiline(t, "Deoxyribonucleic acid")
	require.NoError(t, app.AddCard(ctx))

	all, err = app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, c := range all {
		require.Equal(t, subj.ID, c.SubjectID)
	}
}

func TestAddCard_EmptySubjectUsesDefault(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t, "", "Q")
	scriptMultiline(t, "A")
	require.NoError(t, app.AddCard(ctx))

	subj, err := app.repos.Subjects.GetByName(ctx, "ws1", "General")
	require.NoError(t, err)

	all, err := app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, subj.ID, all[0].SubjectID)
}

func TestDeleteCard(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t, "math", "Q")
	scriptMultiline(t, "A")
	require.NoError(t, app.AddCard(ctx))

	all, err := app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	scriptText(t, all[0].ID)
	require.NoError(t, app.DeleteCard(ctx))

	all, err = app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestStudy_RecordsAnswer(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t,
		"geo", "Capital of France?", // addcard prompts
		"", "3", // study: reveal, rating
	)
	scriptMultiline(t, "Paris")
	require.NoError(t, app.AddCard(ctx))
	require.NoError(t, app.Study(ctx, false))

	all, err := app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	p, err := app.repos.Progress.GetByCardAndUser(ctx, all[0].ID, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, p.ReviewCount)
}

func TestStudy_CramWritesNothing(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t,
		"geo", "Capital of Spain?",
		"", "4",
	)
	scriptMultiline(t, "Madrid")
	require.NoError(t, app.AddCard(ctx))
	require.NoError(t, app.Study(ctx, true))

	ps, err := app.repos.Progress.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, ps)
}

func TestStudy_QuitStopsSession(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	scriptText(t,
		"geo", "Q1",
		"q", // quit before revealing the first card
	)
	scriptMultiline(t, "A1")
	require.NoError(t, app.AddCard(ctx))
	require.NoError(t, app.Study(ctx, false))

	ps, err := app.repos.Progress.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, ps)
}

func TestExportImportRoundTripThroughFile(t *testing.T) {
	silencePrintln(t)
	ctx := context.Background()

	src := newTestApp(t)
	scriptText(t, "history", "When was the French revolution?")
	scriptMultiline(t, "1789")
	require.NoError(t, src.AddCard(ctx))

	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, src.Export(ctx, path))

	dst := newTestApp(t)
	require.NoError(t, dst.Import(ctx, path))

	all, err := dst.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "When was the French revolution?", all[0].Question)
}

func TestBulkImportFromFile(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "cards.txt")
	text := "Q1 # A1 # chem\nQ2 # A2\n"
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	require.NoError(t, app.BulkImport(ctx, path))

	all, err := app.repos.Cards.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestImport_MissingFileErrors(t *testing.T) {
	silencePrintln(t)
	app := newTestApp(t)

	err := app.Import(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
