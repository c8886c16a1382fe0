package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Subjects(ctx context.Context) error
	AddSubject(ctx context.Context) error
	DeleteSubject(ctx context.Context) error
	Cards(ctx context.Context) error
	AddCard(ctx context.Context) error
	DeleteCard(ctx context.Context) error
	Courses(ctx context.Context) error
	AddCourse(ctx context.Context) error
	DeleteCourse(ctx context.Context) error
	Memos(ctx context.Context) error
	AddMemo(ctx context.Context) error
	DeleteMemo(ctx context.Context) error
	Study(ctx context.Context, cram bool) error
	Export(ctx context.Context, path string) error
	Import(ctx context.Context, path string) error
	BulkImport(ctx context.Context, path string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Reset(ctx context.Context) error
}

// runREPL starts a read-eval-print loop over the flashdeck commands.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           - show available commands
//	  - login          - paste an access token
//	  - exit | quit    - leave the program
//
//	Logged in:
//	  - subjects | addsubject | delsubject
//	  - cards | addcard | delcard
//	  - courses | addcourse | delcourse
//	  - memos | addmemo | delmemo
//	  - study | cram   - run a review session (cram skips scheduling)
//	  - export <file> | import <file> | bulkimport <file>
//	  - sync | status | reset
//	  - logout
//	  - exit | quit
//
// Any errors returned by command handlers are printed here so a failed
// command never terminates the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fd %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Content:  subjects, addsubject, delsubject, cards, addcard, delcard,")
				printlnFn("          courses, addcourse, delcourse, memos, addmemo, delmemo")
				printlnFn("Review:   study, cram")
				printlnFn("Data:     export <file>, import <file>, bulkimport <file>")
				printlnFn("Sync:     sync, status, reset")
				printlnFn("Other:    logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "subjects":
			err = a.Subjects(ctx)

		case "addsubject":
			err = a.AddSubject(ctx)

		case "delsubject":
			err = a.DeleteSubject(ctx)

		case "cards":
			err = a.Cards(ctx)

		case "addcard":
			err = a.AddCard(ctx)

		case "delcard":
			err = a.DeleteCard(ctx)

		case "courses":
			err = a.Courses(ctx)

		case "addcourse":
			err = a.AddCourse(ctx)

		case "delcourse":
			err = a.DeleteCourse(ctx)

		case "memos":
			err = a.Memos(ctx)

		case "addmemo":
			err = a.AddMemo(ctx)

		case "delmemo":
			err = a.DeleteMemo(ctx)

		case "study":
			err = a.Study(ctx, false)

		case "cram":
			err = a.Study(ctx, true)

		case "export":
			if len(args) == 0 {
				printlnFn("Usage: export <file>")
				continue
			}
			err = a.Export(ctx, args[0])

		case "import":
			if len(args) == 0 {
				printlnFn("Usage: import <file>")
				continue
			}
			err = a.Import(ctx, args[0])

		case "bulkimport":
			if len(args) == 0 {
				printlnFn("Usage: bulkimport <file>")
				continue
			}
			err = a.BulkImport(ctx, args[0])

		case "sync":
			err = a.Sync(ctx)

		case "status":
			err = a.Status(ctx)

		case "reset":
			err = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}
