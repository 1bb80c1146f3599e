package boardsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/client/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
)

type fakeAPI struct {
	mu       sync.Mutex
	boards   map[string]models.Board
	tasks    map[string][]models.Task
	collabs  map[string][]models.Collaborator
	comments map[string][]models.Comment
	// gates block GetBoard for a board until closed.
	gates map[string]chan struct{}

	nextID      int
	listTasks   int
	commentsErr error
	updates     []models.TaskPatch
	deleted     []string
	assignments map[string]string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		boards:      map[string]models.Board{},
		tasks:       map[string][]models.Task{},
		collabs:     map[string][]models.Collaborator{},
		comments:    map[string][]models.Comment{},
		gates:       map[string]chan struct{}{},
		assignments: map[string]string{},
	}
}

func (f *fakeAPI) gate(boardID string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[boardID] = g
	return g
}

func (f *fakeAPI) GetBoard(ctx context.Context, boardID string) (models.Board, error) {
	f.mu.Lock()
	g := f.gates[boardID]
	f.mu.Unlock()
	if g != nil {
		select {
		case <-g:
		case <-ctx.Done():
			return models.Board{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.boards[boardID]
	if !ok {
		return models.Board{}, &client.APIError{Status: 404, Kind: client.ErrNotFound}
	}
	return b, nil
}

func (f *fakeAPI) ListCollaborators(ctx context.Context, boardID string) ([]models.Collaborator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Collaborator(nil), f.collabs[boardID]...), nil
}

func (f *fakeAPI) Invite(ctx context.Context, boardID, email string) (models.Collaborator, error) {
	return models.Collaborator{UserID: "u-" + email, Email: email, Role: models.RoleCollaborator}, nil
}

func (f *fakeAPI) ListTasks(ctx context.Context, boardID string) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTasks++
	out := make([]models.Task, 0, len(f.tasks[boardID]))
	for _, t := range f.tasks[boardID] {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (f *fakeAPI) listTaskCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listTasks
}

func (f *fakeAPI) CreateTask(ctx context.Context, in models.NewTask) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := models.Task{
		ID: fmt.Sprintf("new-%d", f.nextID), Title: in.Title, Description: in.Description,
		Status: in.Status, BoardID: in.BoardID, Tags: in.Tags, AssignedTo: in.AssignedTo, Version: 1,
	}
	f.tasks[in.BoardID] = append(f.tasks[in.BoardID], t)
	return t, nil
}

func (f *fakeAPI) find(id string) (string, int) {
	for b, ts := range f.tasks {
		for i, t := range ts {
			if t.ID == id {
				return b, i
			}
		}
	}
	return "", -1
}

func (f *fakeAPI) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patch)
	b, i := f.find(taskID)
	if i < 0 {
		return models.Task{}, &client.APIError{Status: 404, Kind: client.ErrNotFound}
	}
	t := f.tasks[b][i]
	t.Apply(patch)
	t.Version++
	f.tasks[b][i] = t
	return t.Clone(), nil
}

func (f *fakeAPI) AssignTask(ctx context.Context, taskID, userID string) (models.Task, error) {
	f.mu.Lock()
	f.assignments[taskID] = userID
	f.mu.Unlock()
	return f.UpdateTask(ctx, taskID, models.TaskPatch{AssignedTo: &userID})
}

func (f *fakeAPI) DeleteTask(ctx context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, taskID)
	b, i := f.find(taskID)
	if i >= 0 {
		f.tasks[b] = append(f.tasks[b][:i], f.tasks[b][i+1:]...)
	}
	return nil
}

func (f *fakeAPI) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return append([]models.Comment(nil), f.comments[taskID]...), nil
}

func (f *fakeAPI) AddComment(ctx context.Context, taskID, content string) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c := models.Comment{ID: fmt.Sprintf("c-%d", f.nextID), Content: content, TaskID: taskID}
	f.comments[taskID] = append(f.comments[taskID], c)
	return c, nil
}

type emitted struct {
	event, room string
	version     int64
}

type fakeChannel struct {
	mu       sync.Mutex
	joins    []string
	leaves   []string
	emits    []emitted
	// relayed holds each emit as the server would push it to other members.
	relayed  []protocol.Event
	handlers []realtime.Handler
	statuses []realtime.StatusHandler
}

func (c *fakeChannel) Join(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins = append(c.joins, room)
	return nil
}

func (c *fakeChannel) Leave(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaves = append(c.leaves, room)
	return nil
}

func (c *fakeChannel) Emit(event, room string, payload any, version int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emits = append(c.emits, emitted{event, room, version})
	if pushed, ok := protocol.PushName(event); ok {
		f, err := protocol.NewFrame(pushed, room, payload, version)
		if err != nil {
			return err
		}
		c.relayed = append(c.relayed, f)
	}
	return nil
}

func (c *fakeChannel) Subscribe(h realtime.Handler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
	return func() {}
}

func (c *fakeChannel) OnStatus(h realtime.StatusHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses = append(c.statuses, h)
	return func() {}
}

func (c *fakeChannel) push(ev protocol.Event) {
	c.mu.Lock()
	hs := append([]realtime.Handler(nil), c.handlers...)
	c.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (c *fakeChannel) status(st realtime.Status) {
	c.mu.Lock()
	hs := append([]realtime.StatusHandler(nil), c.statuses...)
	c.mu.Unlock()
	for _, h := range hs {
		h(st)
	}
}

func (c *fakeChannel) snapshot() (joins, leaves []string, emits []emitted) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.joins...), append([]string(nil), c.leaves...), append([]emitted(nil), c.emits...)
}

// drain returns and forgets the frames relayed so far.
func (c *fakeChannel) drain() []protocol.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.relayed
	c.relayed = nil
	return out
}
