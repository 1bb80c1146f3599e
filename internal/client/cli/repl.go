package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/client/boardsync"
	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Boards(ctx context.Context) error
	NewBoard(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Refresh(ctx context.Context) error
	CloseBoard(ctx context.Context) error
	Invite(ctx context.Context, args []string) error

	AddTask(ctx context.Context) error
	EditTask(ctx context.Context, args []string) error
	MoveTask(ctx context.Context, args []string) error
	AssignTask(ctx context.Context, args []string) error
	DeleteTask(ctx context.Context, args []string) error

	Comments(ctx context.Context, args []string) error
	Collapse(ctx context.Context, args []string) error
	Comment(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
//	Not logged in:
//	  register, login, exit
//
//	Logged in:
//	  boards                 list your boards
//	  newboard <title>       create a board
//	  open <n|id>            open a board from the last listing
//	  show (s)               render the open board
//	  refresh                reload the open board
//	  close                  close the open board
//	  invite <email>         add a collaborator
//	  add                    create a task (interactive)
//	  edit <task>            edit a task (interactive)
//	  move <task> <status>   move a task to another column
//	  assign <task> [user]   assign a task, no user unassigns
//	  delete <task>          delete a task
//	  comments <task>        show the comment thread
//	  collapse <task>        hide the comment thread
//	  comment <task> [text]  add a comment
//	  logout, exit
//
// A handler error is printed as one line and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("qc %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: boards, newboard, open, (s)how, refresh, close, invite, add, edit, move, assign, delete, comments, collapse, comment, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)

		case "boards":
			err = a.Boards(ctx)
		case "newboard":
			err = a.NewBoard(ctx, args)
		case "open":
			err = a.Open(ctx, args)
		case "s", "show":
			err = a.Show(ctx)
		case "refresh":
			err = a.Refresh(ctx)
		case "close":
			err = a.CloseBoard(ctx)
		case "invite":
			err = a.Invite(ctx, args)

		case "add":
			err = a.AddTask(ctx)
		case "edit":
			err = a.EditTask(ctx, args)
		case "move":
			err = a.MoveTask(ctx, args)
		case "assign":
			err = a.AssignTask(ctx, args)
		case "delete":
			err = a.DeleteTask(ctx, args)

		case "comments":
			err = a.Comments(ctx, args)
		case "collapse":
			err = a.Collapse(ctx, args)
		case "comment":
			err = a.Comment(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(describeError(err))
		}
	}
}

// errUsage marks a command invoked with the wrong arguments; its message
// is the usage line.
type errUsage string

func (e errUsage) Error() string { return "usage: " + string(e) }

// describeError turns an error into the one-line message shown to the user.
func describeError(err error) string {
	var usage errUsage
	switch {
	case errors.As(err, &usage):
		return usage.Error()
	case errors.Is(err, session.ErrNotLoggedIn):
		return "Please log in first."
	case errors.Is(err, client.ErrSessionExpired):
		return "Your session has expired, please log in again."
	case errors.Is(err, boardsync.ErrNoBoard):
		return "No board is open, use 'open' first."
	case errors.Is(err, client.ErrTransport):
		return "Server unreachable: " + err.Error()
	case errors.Is(err, realtime.ErrDegradedRealtime):
		return "Realtime updates are unavailable, changes from others show up on refresh."
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "Error: " + apiErr.Message
	}
	return "Error: " + err.Error()
}
