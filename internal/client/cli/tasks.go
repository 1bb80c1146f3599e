package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/client/boardsync"
	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
)

const dueDateLayout = "2006-01-02"

// resolveTask finds a task by its number in the rendered board, its id, or
// a unique id prefix.
func resolveTask(snap boardsync.Snapshot, ref string) (models.Task, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(snap.Tasks) {
		return snap.Tasks[n-1], nil
	}
	if t, ok := snap.Task(ref); ok {
		return t, nil
	}
	var found []models.Task
	for _, t := range snap.Tasks {
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return models.Task{}, fmt.Errorf("%w: %s", boardsync.ErrUnknownTask, ref)
	}
	return models.Task{}, fmt.Errorf("%w: %q matches %d tasks", client.ErrValidation, ref, len(found))
}

// resolveUser maps an email, a name or an id of a collaborator to a user id.
func resolveUser(snap boardsync.Snapshot, ref string) (string, error) {
	for _, c := range snap.Collaborators {
		if c.UserID == ref || strings.EqualFold(c.Email, ref) || strings.EqualFold(c.Name, ref) {
			return c.UserID, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a collaborator of this board", client.ErrValidation, ref)
}

func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dueDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: due date must look like %s", client.ErrValidation, dueDateLayout)
	}
	return &d, nil
}

func (a *App) taskArg(args []string, usage string) (boardEngine, models.Task, error) {
	if len(args) < 1 {
		return nil, models.Task{}, errUsage(usage)
	}
	e, err := a.engine()
	if err != nil {
		return nil, models.Task{}, err
	}
	snap := e.Snapshot()
	if snap.BoardID == "" {
		return nil, models.Task{}, boardsync.ErrNoBoard
	}
	t, err := resolveTask(snap, args[0])
	if err != nil {
		return nil, models.Task{}, err
	}
	return e, t, nil
}

// AddTask asks for the task fields and creates the task on the open board.
func (a *App) AddTask(ctx context.Context) error {
	e, err := a.engine()
	if err != nil {
		return err
	}
	if e.Snapshot().BoardID == "" {
		return boardsync.ErrNoBoard
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	statusText, err := getSimpleText(a.reader, "Status (todo, progress, done) [todo]", a.out)
	if err != nil {
		return err
	}
	status := models.StatusTodo
	if statusText != "" {
		if status, err = models.ParseStatus(statusText); err != nil {
			return fmt.Errorf("%w: %w", client.ErrValidation, err)
		}
	}
	dueText, err := getSimpleText(a.reader, "Due date (YYYY-MM-DD, optional)", a.out)
	if err != nil {
		return err
	}
	due, err := parseDue(dueText)
	if err != nil {
		return err
	}
	tagsText, err := getSimpleText(a.reader, "Tags (comma separated, optional)", a.out)
	if err != nil {
		return err
	}

	t, err := e.CreateTask(ctx, models.NewTask{
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     due,
		Tags:        models.ParseTags(tagsText),
	})
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Created %q [%s]", t.Title, t.ID))
	return nil
}

// EditTask asks for new values; an empty answer keeps the field.
func (a *App) EditTask(ctx context.Context, args []string) error {
	e, t, err := a.taskArg(args, "edit <task>")
	if err != nil {
		return err
	}

	var patch models.TaskPatch

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", t.Title), a.out)
	if err != nil {
		return err
	}
	if title != "" {
		patch.Title = &title
	}
	description, err := getMultiline(a.reader, "Description (empty keeps the current one)", a.out)
	if err != nil {
		return err
	}
	if description != "" {
		patch.Description = &description
	}
	statusText, err := getSimpleText(a.reader, fmt.Sprintf("Status [%s]", t.Status), a.out)
	if err != nil {
		return err
	}
	if statusText != "" {
		status, err := models.ParseStatus(statusText)
		if err != nil {
			return fmt.Errorf("%w: %w", client.ErrValidation, err)
		}
		patch.Status = &status
	}
	dueText, err := getSimpleText(a.reader, "Due date (YYYY-MM-DD, 'none' clears)", a.out)
	if err != nil {
		return err
	}
	if strings.EqualFold(dueText, "none") {
		patch.ClearDueDate = true
	} else if patch.DueDate, err = parseDue(dueText); err != nil {
		return err
	}
	tagsText, err := getSimpleText(a.reader, fmt.Sprintf("Tags [%s]", strings.Join(t.Tags, ", ")), a.out)
	if err != nil {
		return err
	}
	if tagsText != "" {
		tags := models.ParseTags(tagsText)
		patch.Tags = &tags
	}

	updated, err := e.EditTask(ctx, t.ID, patch)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Updated %q", updated.Title))
	return nil
}

// MoveTask moves a task to the column named by the remaining arguments.
func (a *App) MoveTask(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage("move <task> <todo|progress|done>")
	}
	e, t, err := a.taskArg(args, "move <task> <todo|progress|done>")
	if err != nil {
		return err
	}
	status, err := models.ParseStatus(strings.Join(args[1:], " "))
	if err != nil {
		return fmt.Errorf("%w: %w", client.ErrValidation, err)
	}
	moved, err := e.MoveTask(ctx, t.ID, status)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%q moved to %s", moved.Title, moved.Status))
	return nil
}

// AssignTask assigns a task to a collaborator; without a user it unassigns.
func (a *App) AssignTask(ctx context.Context, args []string) error {
	e, t, err := a.taskArg(args, "assign <task> [email|name]")
	if err != nil {
		return err
	}
	userID := ""
	if len(args) > 1 {
		if userID, err = resolveUser(e.Snapshot(), strings.Join(args[1:], " ")); err != nil {
			return err
		}
	}
	if _, err := e.AssignTask(ctx, t.ID, userID); err != nil {
		return err
	}
	if userID == "" {
		printlnFn(fmt.Sprintf("%q is unassigned", t.Title))
	} else {
		printlnFn(fmt.Sprintf("%q assigned", t.Title))
	}
	return nil
}

func (a *App) DeleteTask(ctx context.Context, args []string) error {
	e, t, err := a.taskArg(args, "delete <task>")
	if err != nil {
		return err
	}
	if err := e.DeleteTask(ctx, t.ID); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Deleted %q", t.Title))
	return nil
}
