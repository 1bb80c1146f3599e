package boardsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
)

// Local mutations persist through REST, apply the response to local state
// and then broadcast it. The engine never waits for its own broadcast.

func (e *Engine) current() (uint64, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.boardID == "" {
		return 0, "", ErrNoBoard
	}
	return e.gen, e.boardID, nil
}

func (e *Engine) requireTask(id string) (uint64, string, models.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.boardID == "" {
		return 0, "", models.Task{}, ErrNoBoard
	}
	t, ok := e.b.tasks[id]
	if !ok {
		return 0, "", models.Task{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return e.gen, e.boardID, t, nil
}

// applyLocal feeds a mutation result through the same merge path as
// pushed events. It is buffered like one while the board is loading, and
// dropped if the board changed since gen.
func (e *Engine) applyLocal(gen uint64, ev protocol.Event) {
	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return
	}
	if e.state == StateLoading {
		e.pending = append(e.pending, ev)
		e.mu.Unlock()
		return
	}
	changed, leave := e.applyLocked(ev)
	e.mu.Unlock()

	e.leaveRooms(leave)
	if changed {
		e.notify()
	}
}

func (e *Engine) localEvent(ctx context.Context, pushed, room string, payload any, version int64) (protocol.Event, bool) {
	ev, err := protocol.NewFrame(pushed, room, payload, version)
	if err != nil {
		e.log.Error(ctx, "encode local event", "event", pushed, "error", err)
		return ev, false
	}
	return ev, true
}

func (e *Engine) broadcast(ctx context.Context, event, room string, payload any, version int64) {
	if err := e.ch.Emit(event, room, payload, version); err != nil {
		e.log.Warn(ctx, "broadcast failed, other clients converge on their next fetch",
			"event", event, "room", room, "error", err)
	}
}

func (e *Engine) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	gen, boardID, err := e.current()
	if err != nil {
		return models.Task{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", client.ErrValidation)
	}
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if !in.Status.Valid() {
		return models.Task{}, fmt.Errorf("%w: %w", client.ErrValidation, models.ErrUnknownStatus)
	}
	in.BoardID = boardID

	t, err := e.api.CreateTask(ctx, in)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}

	room := protocol.BoardRoom(boardID)
	if ev, ok := e.localEvent(ctx, protocol.EventTaskCreated, room, t, t.Version); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, protocol.EventCreateTask, room, t, t.Version)
	return t, nil
}

// EditTask changes task fields from the edit form.
func (e *Engine) EditTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if patch.Empty() {
		return models.Task{}, fmt.Errorf("%w: nothing to change", client.ErrValidation)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return models.Task{}, fmt.Errorf("%w: title is required", client.ErrValidation)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return models.Task{}, fmt.Errorf("%w: %w", client.ErrValidation, models.ErrUnknownStatus)
	}
	return e.update(ctx, id, patch, protocol.EventTaskEdited, protocol.EventEditTask)
}

// MoveTask changes the status of a task, as when it is dragged to another
// column. It issues the same update as a status edit.
func (e *Engine) MoveTask(ctx context.Context, id string, status models.Status) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, fmt.Errorf("%w: %w", client.ErrValidation, models.ErrUnknownStatus)
	}
	return e.update(ctx, id, models.TaskPatch{Status: &status}, protocol.EventTaskUpdated, protocol.EventUpdateTask)
}

func (e *Engine) update(ctx context.Context, id string, patch models.TaskPatch, pushed, emitted string) (models.Task, error) {
	gen, boardID, _, err := e.requireTask(id)
	if err != nil {
		return models.Task{}, err
	}

	t, err := e.api.UpdateTask(ctx, id, patch)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}

	room := protocol.BoardRoom(boardID)
	full := models.PatchFromTask(t)
	if ev, ok := e.localEvent(ctx, pushed, room, full, t.Version); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, emitted, room, full, t.Version)
	return t, nil
}

// AssignTask sets the assignee; an empty userID unassigns.
func (e *Engine) AssignTask(ctx context.Context, id, userID string) (models.Task, error) {
	gen, boardID, _, err := e.requireTask(id)
	if err != nil {
		return models.Task{}, err
	}

	t, err := e.api.AssignTask(ctx, id, userID)
	if err != nil {
		return models.Task{}, fmt.Errorf("assign task: %w", err)
	}

	room := protocol.BoardRoom(boardID)
	full := models.PatchFromTask(t)
	if ev, ok := e.localEvent(ctx, protocol.EventTaskAssigned, room, full, t.Version); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, protocol.EventAssignTask, room, full, t.Version)
	return t, nil
}

// DeleteTask removes the task together with its comment thread and
// releases its room.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	gen, boardID, _, err := e.requireTask(id)
	if err != nil {
		return err
	}

	if err := e.api.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	room := protocol.BoardRoom(boardID)
	ref := map[string]string{"id": id, "boardId": boardID}
	if ev, ok := e.localEvent(ctx, protocol.EventTaskDeleted, room, ref, 0); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, protocol.EventDeleteTask, room, ref, 0)
	return nil
}

// ExpandComments loads the comment thread of a task and joins its room.
// The thread is marked loaded before the fetch so comments pushed in the
// meantime are kept. A failed fetch undoes what this call set up.
func (e *Engine) ExpandComments(ctx context.Context, id string) ([]models.Comment, error) {
	e.mu.Lock()
	if e.boardID == "" {
		e.mu.Unlock()
		return nil, ErrNoBoard
	}
	if _, ok := e.b.tasks[id]; !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	gen := e.gen
	room := protocol.TaskRoom(id)
	join := !e.rooms[room]
	e.rooms[room] = true
	_, loaded := e.b.comments[id]
	if !loaded {
		e.b.comments[id] = []models.Comment{}
	}
	wasExpanded, hadExpanded := e.b.expanded[id]
	e.b.expanded[id] = true
	e.mu.Unlock()

	if join {
		if err := e.ch.Join(room); err != nil {
			e.log.Warn(ctx, "join task room", "room", room, "error", err)
		}
	}
	e.notify()

	fetched, err := e.api.ListComments(ctx, id)
	if err != nil {
		e.mu.Lock()
		leave := false
		if e.gen == gen {
			if !loaded {
				delete(e.b.comments, id)
			}
			if hadExpanded {
				e.b.expanded[id] = wasExpanded
			} else {
				delete(e.b.expanded, id)
			}
			if join && e.rooms[room] {
				delete(e.rooms, room)
				leave = true
			}
		}
		e.mu.Unlock()

		if leave {
			e.leaveRooms([]string{room})
		}
		e.notify()
		return nil, fmt.Errorf("list comments: %w", err)
	}

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return fetched, nil
	}
	live, loaded := e.b.comments[id]
	if !loaded {
		// deleted while loading
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	thread := mergeComments(fetched, live)
	e.b.comments[id] = thread
	out := append([]models.Comment(nil), thread...)
	e.mu.Unlock()

	e.notify()
	return out, nil
}

// CollapseComments hides the thread. The task room stays joined until the
// board is closed.
func (e *Engine) CollapseComments(id string) {
	e.mu.Lock()
	_, shown := e.b.expanded[id]
	if shown {
		e.b.expanded[id] = false
	}
	e.mu.Unlock()
	if shown {
		e.notify()
	}
}

func (e *Engine) AddComment(ctx context.Context, id, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, fmt.Errorf("%w: comment is empty", client.ErrValidation)
	}
	gen, _, _, err := e.requireTask(id)
	if err != nil {
		return models.Comment{}, err
	}

	c, err := e.api.AddComment(ctx, id, content)
	if err != nil {
		return models.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	if c.TaskID == "" {
		c.TaskID = id
	}

	room := protocol.TaskRoom(id)
	if ev, ok := e.localEvent(ctx, protocol.EventCommentAdded, room, c, 0); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, protocol.EventAddComment, room, c, 0)
	return c, nil
}

// Invite adds a collaborator by email to the open board.
func (e *Engine) Invite(ctx context.Context, email string) (models.Collaborator, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Collaborator{}, fmt.Errorf("%w: email is required", client.ErrValidation)
	}
	gen, boardID, err := e.current()
	if err != nil {
		return models.Collaborator{}, err
	}

	c, err := e.api.Invite(ctx, boardID, email)
	if err != nil {
		return models.Collaborator{}, fmt.Errorf("invite: %w", err)
	}

	room := protocol.BoardRoom(boardID)
	if ev, ok := e.localEvent(ctx, protocol.EventCollaboratorAdded, room, c, 0); ok {
		e.applyLocal(gen, ev)
	}
	e.broadcast(ctx, protocol.EventAddCollab, room, c, 0)
	e.broadcast(ctx, protocol.EventInviteSent, room, map[string]string{"email": email, "boardId": boardID}, 0)
	return c, nil
}
