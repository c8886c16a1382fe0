package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	paths []string
	cram  []bool
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Subjects(ctx context.Context) error      { return f.record("subjects") }
func (f *fakeExec) AddSubject(ctx context.Context) error    { return f.record("addsubject") }
func (f *fakeExec) DeleteSubject(ctx context.Context) error { return f.record("delsubject") }
func (f *fakeExec) Cards(ctx context.Context) error         { return f.record("cards") }
func (f *fakeExec) AddCard(ctx context.Context) error       { return f.record("addcard") }
func (f *fakeExec) DeleteCard(ctx context.Context) error    { return f.record("delcard") }
func (f *fakeExec) Courses(ctx context.Context) error       { return f.record("courses") }
func (f *fakeExec) AddCourse(ctx context.Context) error     { return f.record("addcourse") }
func (f *fakeExec) DeleteCourse(ctx context.Context) error  { return f.record("delcourse") }
func (f *fakeExec) Memos(ctx context.Context) error         { return f.record("memos") }
func (f *fakeExec) AddMemo(ctx context.Context) error       { return f.record("addmemo") }
func (f *fakeExec) DeleteMemo(ctx context.Context) error    { return f.record("delmemo") }
func (f *fakeExec) Study(ctx context.Context, cram bool) error {
	f.cram = append(f.cram, cram)
	return f.record("study")
}
func (f *fakeExec) Export(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.record("export")
}
func (f *fakeExec) Import(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.record("import")
}
func (f *fakeExec) BulkImport(ctx context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.record("bulkimport")
}
func (f *fakeExec) Sync(ctx context.Context) error   { return f.record("sync") }
func (f *fakeExec) Status(ctx context.Context) error { return f.record("status") }
func (f *fakeExec) Reset(ctx context.Context) error  { return f.record("reset") }

// silencePrintln replaces the output seam and collects printed lines.
func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		lines = append(lines, strings.TrimRight(fmt.Sprintln(args...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrintln(t)

	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"subjects",
		"addcard",
		"study",
		"cram",
		"export",
		"export /tmp/deck.json",
		"bulkimport cards.txt",
		"sync",
		"status",
		"nonsense",
		"logout",
		"exit",
	}, "\n")

	exec := &fakeExec{}
	sc := bufio.NewScanner(strings.NewReader(input))

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	require.Equal(t,
		[]string{"login", "subjects", "addcard", "study", "study", "export", "bulkimport", "sync", "status", "logout"},
		exec.calls)
	require.Equal(t, []bool{false, true}, exec.cram)
	// The bare "export" printed usage instead of calling the handler.
	require.Equal(t, []string{"/tmp/deck.json", "cards.txt"}, exec.paths)
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	sc := bufio.NewScanner(strings.NewReader("subjects\n"))

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	require.Equal(t, []string{"subjects"}, exec.calls)
}

var errSyncExploded = errors.New("sync exploded")

type failingExec struct {
	*fakeExec
}

func (f *failingExec) Sync(ctx context.Context) error {
	_ = f.record("sync")
	return errSyncExploded
}

func TestRunREPL_HandlerErrorIsPrintedNotFatal(t *testing.T) {
	lines := silencePrintln(t)

	exec := &failingExec{fakeExec: &fakeExec{}}
	sc := bufio.NewScanner(strings.NewReader("sync\nstatus\nexit\n"))

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	require.Equal(t, []string{"sync", "status"}, exec.calls)

	var sawError bool
	for _, l := range *lines {
		if strings.Contains(l, "sync exploded") {
			sawError = true
		}
	}
	require.True(t, sawError, "the handler error should be printed")
}
