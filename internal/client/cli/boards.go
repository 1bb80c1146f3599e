package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/client/session"
)

// Boards lists the boards the user owns or collaborates on and remembers
// the listing so 'open' can take an index.
func (a *App) Boards(ctx context.Context) error {
	if !a.isLoggedIn() {
		return session.ErrNotLoggedIn
	}
	list, err := a.boards.ListBoards(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.lastBoards = list
	a.mu.Unlock()

	if len(list) == 0 {
		printlnFn("No boards yet, create one with 'newboard <title>'")
		return nil
	}
	for i, b := range list {
		printlnFn(fmt.Sprintf("%3d. %s (owner: %s) [%s]", i+1, b.Title, b.Owner.Name, b.ID))
	}
	return nil
}

func (a *App) NewBoard(ctx context.Context, args []string) error {
	if !a.isLoggedIn() {
		return session.ErrNotLoggedIn
	}
	title := strings.Join(args, " ")
	if title == "" {
		var err error
		if title, err = getSimpleText(a.reader, "Board title", a.out); err != nil {
			return err
		}
	}
	b, err := a.boards.CreateBoard(ctx, title)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.lastBoards = append(a.lastBoards, b)
	a.mu.Unlock()

	printlnFn(fmt.Sprintf("Created board %q [%s]", b.Title, b.ID))
	return nil
}

// Open makes a board current. The argument is an index from the last
// 'boards' listing or a board id.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("open <n|board id>")
	}
	e, err := a.engine()
	if err != nil {
		return err
	}

	id := args[0]
	a.mu.Lock()
	if n, convErr := strconv.Atoi(id); convErr == nil && n >= 1 && n <= len(a.lastBoards) {
		id = a.lastBoards[n-1].ID
	}
	a.mu.Unlock()

	if err := e.Open(ctx, id); err != nil {
		return err
	}
	return a.Show(ctx)
}

// Show renders the open board.
func (a *App) Show(_ context.Context) error {
	e, err := a.engine()
	if err != nil {
		return err
	}
	snap := e.Snapshot()
	a.changed.Store(false)
	renderBoard(printlnFn, snap)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	e, err := a.engine()
	if err != nil {
		return err
	}
	if err := e.Refresh(ctx); err != nil {
		return err
	}
	return a.Show(ctx)
}

// CloseBoard leaves the board and its task rooms.
func (a *App) CloseBoard(_ context.Context) error {
	e, err := a.engine()
	if err != nil {
		return err
	}
	e.Close()
	a.changed.Store(false)
	return nil
}

func (a *App) Invite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage("invite <email>")
	}
	e, err := a.engine()
	if err != nil {
		return err
	}
	c, err := e.Invite(ctx, args[0])
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s is now a %s of this board", c.Email, c.Role))
	return nil
}
