package cli

import (
	"context"
	"strings"
)

// Comments loads and shows the thread of a task. New comments keep
// arriving while the thread is open.
func (a *App) Comments(ctx context.Context, args []string) error {
	e, t, err := a.taskArg(args, "comments <task>")
	if err != nil {
		return err
	}
	thread, err := e.ExpandComments(ctx, t.ID)
	if err != nil {
		return err
	}
	renderComments(printlnFn, t, thread)
	return nil
}

func (a *App) Collapse(_ context.Context, args []string) error {
	e, t, err := a.taskArg(args, "collapse <task>")
	if err != nil {
		return err
	}
	e.CollapseComments(t.ID)
	return nil
}

// Comment adds a comment; without inline text it prompts for it.
func (a *App) Comment(ctx context.Context, args []string) error {
	e, t, err := a.taskArg(args, "comment <task> [text]")
	if err != nil {
		return err
	}
	content := strings.Join(args[1:], " ")
	if content == "" {
		if content, err = getMultiline(a.reader, "Comment", a.out); err != nil {
			return err
		}
	}
	if _, err := e.AddComment(ctx, t.ID, content); err != nil {
		return err
	}
	printlnFn("Comment added")
	return nil
}
