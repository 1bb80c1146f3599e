package boardsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/client/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func frame(t *testing.T, event, room string, payload any, version int64) protocol.Event {
	t.Helper()
	f, err := protocol.NewFrame(event, room, payload, version)
	require.NoError(t, err)
	return f
}

type fixture struct {
	api *fakeAPI
	ch  *fakeChannel
	e   *Engine
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	api := newFakeAPI()
	api.boards["b1"] = models.Board{ID: "b1", Title: "Roadmap", Owner: models.User{ID: "u1"}}
	api.boards["b2"] = models.Board{ID: "b2", Title: "Ops"}
	api.collabs["b1"] = []models.Collaborator{{UserID: "u1", Email: "ann@example.com", Role: models.RoleOwner}}
	ch := &fakeChannel{}
	e := New(api, ch, logging.Discard(), opts...)
	t.Cleanup(e.Stop)
	return &fixture{api: api, ch: ch, e: e}
}

func (f *fixture) open(t *testing.T, boardID string) {
	t.Helper()
	require.NoError(t, f.e.Open(context.Background(), boardID))
	require.Equal(t, StateReady, f.e.State())
}

func taskIDs(s Snapshot) []string {
	var ids []string
	for _, t := range s.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestOpen_LoadsSnapshotAndJoinsBoardRoom(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{
		{ID: "1", Title: "A", Status: models.StatusTodo, BoardID: "b1", Version: 1},
		{ID: "2", Title: "B", Status: models.StatusDone, BoardID: "b1", Version: 4},
	}

	f.open(t, "b1")

	s := f.e.Snapshot()
	require.Equal(t, "b1", s.BoardID)
	require.Equal(t, "Roadmap", s.Board.Title)
	require.Equal(t, []string{"1", "2"}, taskIDs(s))
	require.Len(t, s.Collaborators, 1)
	require.Len(t, s.Column(models.StatusDone), 1)

	joins, _, _ := f.ch.snapshot()
	require.Equal(t, []string{"board:b1"}, joins)
}

func TestOpen_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.e.Open(context.Background(), "missing")
	require.ErrorIs(t, err, client.ErrNotFound)
	require.Equal(t, StateLoading, f.e.State())
}

func TestEvents_AppliedOnceInArrivalOrder(t *testing.T) {
	f := newFixture(t)
	f.open(t, "b1")
	room := protocol.BoardRoom("b1")

	f.ch.push(frame(t, protocol.EventTaskCreated, room, models.Task{ID: "1", Title: "A", Status: models.StatusTodo, BoardID: "b1"}, 0))
	f.ch.push(frame(t, protocol.EventTaskCreated, room, models.Task{ID: "2", Title: "B", Status: models.StatusTodo, BoardID: "b1"}, 0))
	f.ch.push(frame(t, protocol.EventTaskUpdated, room, map[string]any{"id": "1", "status": "In Progress"}, 0))
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "2", "title": "B2"}, 0))
	f.ch.push(frame(t, protocol.EventTaskDeleted, room, map[string]any{"id": "1"}, 0))
	// at-least-once delivery: a duplicate create for a deleted task stays deleted
	f.ch.push(frame(t, protocol.EventTaskCreated, room, models.Task{ID: "1", Title: "A", BoardID: "b1"}, 0))

	s := f.e.Snapshot()
	want := []models.Task{{ID: "2", Title: "B2", Status: models.StatusTodo, BoardID: "b1"}}
	if diff := cmp.Diff(want, s.Tasks); diff != "" {
		t.Fatalf("tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestEvents_FieldLevelMerge(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", Description: "keep", Status: models.StatusTodo, BoardID: "b1"}}
	f.open(t, "b1")
	room := protocol.BoardRoom("b1")

	f.ch.push(frame(t, protocol.EventTaskUpdated, room, map[string]any{"id": "1", "status": "Done"}, 0))
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "1", "title": "Y"}, 0))

	got, ok := f.e.Snapshot().Task("1")
	require.True(t, ok)
	require.Equal(t, models.StatusDone, got.Status)
	require.Equal(t, "Y", got.Title)
	require.Equal(t, "keep", got.Description)
}

func TestEvents_VersionGate(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "v3", Status: models.StatusTodo, BoardID: "b1", Version: 3}}
	f.open(t, "b1")
	room := protocol.BoardRoom("b1")

	// stale and equal versions are dropped
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "1", "title": "v2"}, 2))
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "1", "title": "v3 again"}, 3))
	got, _ := f.e.Snapshot().Task("1")
	require.Equal(t, "v3", got.Title)

	// newer wins, version taken from the frame or the payload
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "1", "title": "v5"}, 5))
	f.ch.push(frame(t, protocol.EventTaskUpdated, room, map[string]any{"id": "1", "status": "Done", "version": 4}, 0))
	got, _ = f.e.Snapshot().Task("1")
	require.Equal(t, "v5", got.Title)
	require.Equal(t, models.StatusTodo, got.Status)
	require.Equal(t, int64(5), got.Version)

	// unversioned events fall back to arrival order
	f.ch.push(frame(t, protocol.EventTaskUpdated, room, map[string]any{"id": "1", "status": "In Progress"}, 0))
	got, _ = f.e.Snapshot().Task("1")
	require.Equal(t, models.StatusInProgress, got.Status)
	require.Equal(t, int64(5), got.Version)
}

func TestEvents_IgnoresOtherRoomsAndUnknownEvents(t *testing.T) {
	f := newFixture(t)
	f.open(t, "b1")

	f.ch.push(frame(t, protocol.EventTaskCreated, protocol.BoardRoom("b2"), models.Task{ID: "9", BoardID: "b2"}, 0))
	f.ch.push(frame(t, protocol.EventTaskCreated, protocol.BoardRoom("b1"), models.Task{ID: "8", BoardID: "b2"}, 0))
	f.ch.push(frame(t, "boardRenamed", protocol.BoardRoom("b1"), map[string]string{"title": "x"}, 0))
	f.ch.push(protocol.Event{Event: protocol.EventTaskCreated, Room: protocol.BoardRoom("b1"), Data: []byte(`{oops`)})
	f.ch.push(frame(t, protocol.EventTaskUpdated, protocol.BoardRoom("b1"), map[string]any{"id": "unknown", "title": "x"}, 0))

	require.Empty(t, f.e.Snapshot().Tasks)
}

func TestEvents_IgnoredWithoutOpenBoard(t *testing.T) {
	f := newFixture(t)
	f.ch.push(frame(t, protocol.EventTaskCreated, "", models.Task{ID: "1"}, 0))
	require.Empty(t, f.e.Snapshot().Tasks)
	require.Equal(t, StateUninitialized, f.e.State())
}

func TestCreateTask_AppliesResponseWithoutWaitingForEcho(t *testing.T) {
	f := newFixture(t)
	f.open(t, "b1")
	require.Empty(t, f.e.Snapshot().Tasks)

	task, err := f.e.CreateTask(context.Background(), models.NewTask{Title: "X", Status: models.StatusTodo})
	require.NoError(t, err)

	s := f.e.Snapshot()
	require.Len(t, s.Tasks, 1)
	require.Equal(t, "X", s.Tasks[0].Title)
	require.Equal(t, task.ID, s.Tasks[0].ID)
	require.Len(t, s.Column(models.StatusTodo), 1)

	_, _, emits := f.ch.snapshot()
	require.Equal(t, []emitted{{protocol.EventCreateTask, "board:b1", 1}}, emits)

	// the echo of our own create changes nothing
	f.ch.push(frame(t, protocol.EventTaskCreated, "board:b1", task, 1))
	require.Len(t, f.e.Snapshot().Tasks, 1)
}

func TestCreateTask_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.e.CreateTask(context.Background(), models.NewTask{Title: "X"})
	require.ErrorIs(t, err, ErrNoBoard)

	f.open(t, "b1")
	_, err = f.e.CreateTask(context.Background(), models.NewTask{Title: "  "})
	require.ErrorIs(t, err, client.ErrValidation)
	_, err = f.e.CreateTask(context.Background(), models.NewTask{Title: "X", Status: "Blocked"})
	require.ErrorIs(t, err, client.ErrValidation)

	task, err := f.e.CreateTask(context.Background(), models.NewTask{Title: "X"})
	require.NoError(t, err)
	require.Equal(t, models.StatusTodo, task.Status)
	require.Equal(t, "b1", task.BoardID)
}

func TestMoveAndEditTask(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", Description: "d", Status: models.StatusTodo, BoardID: "b1", Version: 1}}
	f.open(t, "b1")
	ctx := context.Background()

	moved, err := f.e.MoveTask(ctx, "1", models.StatusDone)
	require.NoError(t, err)
	require.Equal(t, int64(2), moved.Version)

	_, err = f.e.EditTask(ctx, "1", models.TaskPatch{Title: ptr("Y"), Tags: &[]string{"ops"}})
	require.NoError(t, err)

	got, _ := f.e.Snapshot().Task("1")
	require.Equal(t, models.StatusDone, got.Status)
	require.Equal(t, "Y", got.Title)
	require.Equal(t, []string{"ops"}, got.Tags)
	require.Equal(t, int64(3), got.Version)

	// the drag issues a status-only update
	require.Equal(t, models.TaskPatch{Status: ptr(models.StatusDone)}, f.api.updates[0])

	_, _, emits := f.ch.snapshot()
	require.Equal(t, []emitted{
		{protocol.EventUpdateTask, "board:b1", 2},
		{protocol.EventEditTask, "board:b1", 3},
	}, emits)

	_, err = f.e.MoveTask(ctx, "nope", models.StatusDone)
	require.ErrorIs(t, err, ErrUnknownTask)
	_, err = f.e.EditTask(ctx, "1", models.TaskPatch{})
	require.ErrorIs(t, err, client.ErrValidation)
	_, err = f.e.MoveTask(ctx, "1", "Later")
	require.ErrorIs(t, err, client.ErrValidation)
}

func TestAssignTask(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", Status: models.StatusTodo, BoardID: "b1", Version: 1}}
	f.open(t, "b1")

	_, err := f.e.AssignTask(context.Background(), "1", "u2")
	require.NoError(t, err)

	got, _ := f.e.Snapshot().Task("1")
	require.Equal(t, "u2", got.AssignedTo)
	_, _, emits := f.ch.snapshot()
	require.Equal(t, protocol.EventAssignTask, emits[0].event)
}

func TestBroadcast_ClearedFieldsConvergeOnOtherClients(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	seed := []models.Task{{ID: "1", Title: "X", Status: models.StatusTodo, BoardID: "b1",
		AssignedTo: "u2", Tags: []string{"x"}, DueDate: &due, Version: 1}}

	a := newFixture(t)
	a.api.tasks["b1"] = seed
	a.open(t, "b1")
	b := newFixture(t)
	b.api.tasks["b1"] = []models.Task{seed[0].Clone()}
	b.open(t, "b1")
	ctx := context.Background()

	_, err := a.e.AssignTask(ctx, "1", "")
	require.NoError(t, err)
	_, err = a.e.EditTask(ctx, "1", models.TaskPatch{Tags: &[]string{}, ClearDueDate: true})
	require.NoError(t, err)

	frames := a.ch.drain()
	require.Len(t, frames, 2)
	for _, f := range frames {
		b.ch.push(f)
	}

	gotA, _ := a.e.Snapshot().Task("1")
	gotB, _ := b.e.Snapshot().Task("1")
	require.Empty(t, gotA.AssignedTo)
	require.Empty(t, gotA.Tags)
	require.Nil(t, gotA.DueDate)
	require.Equal(t, int64(3), gotA.Version)
	if diff := cmp.Diff(gotA, gotB); diff != "" {
		t.Fatalf("clients diverged (-sender +receiver):\n%s", diff)
	}
}

func TestDeleteTask_PurgesCommentsAndReleasesRoom(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", Status: models.StatusTodo, BoardID: "b1", Version: 1}}
	f.api.comments["1"] = []models.Comment{{ID: "c1", Content: "hi", TaskID: "1"}}
	f.open(t, "b1")
	ctx := context.Background()

	thread, err := f.e.ExpandComments(ctx, "1")
	require.NoError(t, err)
	require.Len(t, thread, 1)

	var (
		mu    sync.Mutex
		views []Snapshot
	)
	f.e.Subscribe(func() {
		mu.Lock()
		views = append(views, f.e.Snapshot())
		mu.Unlock()
	})

	require.NoError(t, f.e.DeleteTask(ctx, "1"))

	mu.Lock()
	require.Len(t, views, 1)
	after := views[0]
	mu.Unlock()
	require.Empty(t, after.Tasks)
	require.NotContains(t, after.Comments, "1")
	require.NotContains(t, after.Expanded, "1")

	_, leaves, emits := f.ch.snapshot()
	require.Equal(t, []string{"task:1"}, leaves)
	require.Equal(t, protocol.EventDeleteTask, emits[len(emits)-1].event)

	// a late comment for the deleted task leaves no trace
	f.ch.push(frame(t, protocol.EventCommentAdded, "task:1", models.Comment{ID: "c2", TaskID: "1"}, 0))
	require.Empty(t, f.e.Snapshot().Comments)
}

func TestDeletedByPushEvent_PurgesOpenThread(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", BoardID: "b1"}}
	f.open(t, "b1")
	_, err := f.e.ExpandComments(context.Background(), "1")
	require.NoError(t, err)

	f.ch.push(frame(t, protocol.EventTaskDeleted, "board:b1", "1", 0))

	s := f.e.Snapshot()
	require.Empty(t, s.Tasks)
	require.Empty(t, s.Comments)
	require.Empty(t, s.Expanded)
	_, leaves, _ := f.ch.snapshot()
	require.Equal(t, []string{"task:1"}, leaves)
}

func TestComments_LazyLoadAndAppendOnly(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", BoardID: "b1"}}
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	f.api.comments["1"] = []models.Comment{{ID: "c1", TaskID: "1", CreatedAt: t0}}
	f.open(t, "b1")
	ctx := context.Background()

	// comments pushed before the thread is loaded are not kept
	f.ch.push(frame(t, protocol.EventCommentAdded, "", models.Comment{ID: "c0", TaskID: "1"}, 0))
	require.Empty(t, f.e.Snapshot().Comments)

	joins, _, _ := f.ch.snapshot()
	require.Equal(t, []string{"board:b1"}, joins)

	_, err := f.e.ExpandComments(ctx, "1")
	require.NoError(t, err)
	joins, _, _ = f.ch.snapshot()
	require.Equal(t, []string{"board:b1", "task:1"}, joins)

	f.ch.push(frame(t, protocol.EventNewComment, "task:1", models.Comment{ID: "c2", TaskID: "1", CreatedAt: t0.Add(time.Minute)}, 0))
	f.ch.push(frame(t, protocol.EventCommentAdded, "task:1", models.Comment{ID: "c2", TaskID: "1", CreatedAt: t0.Add(time.Minute)}, 0))

	c, err := f.e.AddComment(ctx, "1", " mine ")
	require.NoError(t, err)
	require.Equal(t, "mine", c.Content)

	s := f.e.Snapshot()
	var ids []string
	for _, cm := range s.Comments["1"] {
		ids = append(ids, cm.ID)
	}
	require.Equal(t, []string{"c1", "c2", c.ID}, ids)
	require.True(t, s.Expanded["1"])

	f.e.CollapseComments("1")
	s = f.e.Snapshot()
	require.False(t, s.Expanded["1"])
	require.Len(t, s.Comments["1"], 3)

	// expanding again does not join twice
	_, err = f.e.ExpandComments(ctx, "1")
	require.NoError(t, err)
	joins, leaves, emits := f.ch.snapshot()
	require.Equal(t, []string{"board:b1", "task:1"}, joins)
	require.Empty(t, leaves)
	require.Equal(t, emitted{protocol.EventAddComment, "task:1", 0}, emits[len(emits)-1])

	_, err = f.e.AddComment(ctx, "1", "   ")
	require.ErrorIs(t, err, client.ErrValidation)

	f.e.Close()
	_, leaves, _ = f.ch.snapshot()
	require.ElementsMatch(t, []string{"board:b1", "task:1"}, leaves)
}

func TestExpandComments_FailedFetchRollsBack(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", BoardID: "b1"}}
	f.api.commentsErr = errors.New("boom")
	f.open(t, "b1")

	_, err := f.e.ExpandComments(context.Background(), "1")
	require.ErrorContains(t, err, "boom")

	s := f.e.Snapshot()
	require.False(t, s.Expanded["1"])
	_, loaded := s.Comments["1"]
	require.False(t, loaded)
	joins, leaves, _ := f.ch.snapshot()
	require.Equal(t, []string{"board:b1", "task:1"}, joins)
	require.Equal(t, []string{"task:1"}, leaves)

	// a later successful expand joins again and loads the thread
	f.api.mu.Lock()
	f.api.commentsErr = nil
	f.api.comments["1"] = []models.Comment{{ID: "c1", TaskID: "1"}}
	f.api.mu.Unlock()
	got, err := f.e.ExpandComments(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	joins, _, _ = f.ch.snapshot()
	require.Equal(t, []string{"board:b1", "task:1", "task:1"}, joins)
	require.True(t, f.e.Snapshot().Expanded["1"])
}

func TestExpandComments_FailedRefetchKeepsLoadedThread(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", BoardID: "b1"}}
	f.api.comments["1"] = []models.Comment{{ID: "c1", TaskID: "1"}}
	f.open(t, "b1")
	ctx := context.Background()

	_, err := f.e.ExpandComments(ctx, "1")
	require.NoError(t, err)
	f.e.CollapseComments("1")

	f.api.mu.Lock()
	f.api.commentsErr = errors.New("boom")
	f.api.mu.Unlock()
	_, err = f.e.ExpandComments(ctx, "1")
	require.Error(t, err)

	s := f.e.Snapshot()
	require.False(t, s.Expanded["1"])
	require.Len(t, s.Comments["1"], 1)
	_, leaves, _ := f.ch.snapshot()
	require.Empty(t, leaves)
}

func TestInvite_AddsCollaboratorOnce(t *testing.T) {
	f := newFixture(t)
	f.open(t, "b1")

	c, err := f.e.Invite(context.Background(), "bob@example.com")
	require.NoError(t, err)
	f.ch.push(frame(t, protocol.EventCollaboratorAdded, "board:b1", c, 0))

	s := f.e.Snapshot()
	require.Len(t, s.Collaborators, 2)
	require.Equal(t, "bob@example.com", s.Collaborators[1].Email)

	_, _, emits := f.ch.snapshot()
	require.Equal(t, []emitted{
		{protocol.EventAddCollab, "board:b1", 0},
		{protocol.EventInviteSent, "board:b1", 0},
	}, emits)

	_, err = f.e.Invite(context.Background(), "")
	require.ErrorIs(t, err, client.ErrValidation)
}

func TestLoading_BuffersEventsAndReplaysOverSnapshot(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Title: "X", Status: models.StatusTodo, BoardID: "b1", Version: 2}}
	gate := f.api.gate("b1")

	done := make(chan error, 1)
	go func() { done <- f.e.Open(context.Background(), "b1") }()
	require.Eventually(t, func() bool { return f.e.State() == StateLoading }, time.Second, time.Millisecond)

	room := protocol.BoardRoom("b1")
	f.ch.push(frame(t, protocol.EventTaskUpdated, room, map[string]any{"id": "1", "status": "Done"}, 3))
	f.ch.push(frame(t, protocol.EventTaskEdited, room, map[string]any{"id": "1", "title": "stale"}, 1))
	f.ch.push(frame(t, protocol.EventTaskCreated, room, models.Task{ID: "2", Title: "new", BoardID: "b1", Version: 1}, 1))
	require.Empty(t, f.e.Snapshot().Tasks)

	close(gate)
	require.NoError(t, <-done)

	s := f.e.Snapshot()
	require.Equal(t, StateReady, s.State)
	require.Equal(t, []string{"1", "2"}, taskIDs(s))
	got, _ := s.Task("1")
	require.Equal(t, models.StatusDone, got.Status)
	require.Equal(t, "X", got.Title)
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "old", BoardID: "b1"}}
	f.api.tasks["b2"] = []models.Task{{ID: "current", BoardID: "b2"}}
	gate := f.api.gate("b1")

	done := make(chan error, 1)
	go func() { done <- f.e.Open(context.Background(), "b1") }()
	require.Eventually(t, func() bool { return f.e.State() == StateLoading }, time.Second, time.Millisecond)

	f.open(t, "b2")
	close(gate)
	require.NoError(t, <-done)

	s := f.e.Snapshot()
	require.Equal(t, "b2", s.BoardID)
	require.Equal(t, []string{"current"}, taskIDs(s))

	_, leaves, _ := f.ch.snapshot()
	require.Equal(t, []string{"board:b1"}, leaves)
}

func TestReset_ClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", BoardID: "b1"}}
	f.open(t, "b1")
	_, err := f.e.ExpandComments(context.Background(), "1")
	require.NoError(t, err)

	f.e.Reset()

	s := f.e.Snapshot()
	require.Equal(t, StateUninitialized, s.State)
	require.Empty(t, s.BoardID)
	require.Empty(t, s.Tasks)
	require.Empty(t, s.Comments)

	f.open(t, "b2")
	require.Empty(t, f.e.Snapshot().Tasks)
}

func TestReconnect_RefetchesBoard(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", BoardID: "b1", Version: 1}}
	f.open(t, "b1")
	require.Equal(t, 1, f.api.listTaskCalls())

	// a change missed while disconnected
	f.api.mu.Lock()
	f.api.tasks["b1"] = append(f.api.tasks["b1"], models.Task{ID: "2", BoardID: "b1", Version: 1})
	f.api.mu.Unlock()

	f.ch.status(realtime.Status{Connected: true, Reconnected: true})

	require.Eventually(t, func() bool {
		s := f.e.Snapshot()
		return s.State == StateReady && !s.Stale && len(s.Tasks) == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, 2, f.api.listTaskCalls())
}

func TestDegradedFlagFollowsChannel(t *testing.T) {
	f := newFixture(t)
	f.open(t, "b1")

	f.ch.status(realtime.Status{Degraded: true, Err: realtime.ErrDegradedRealtime})
	require.True(t, f.e.Snapshot().Degraded)
	require.Equal(t, StateReady, f.e.State())

	f.ch.status(realtime.Status{Connected: true})
	require.False(t, f.e.Snapshot().Degraded)
}

func TestWithBindings_CustomEventNames(t *testing.T) {
	f := newFixture(t, WithBindings(EventBindings{"cardMoved": OpPatch, "cardAdded": OpUpsert}))
	f.open(t, "b1")

	f.ch.push(frame(t, "cardAdded", "board:b1", models.Task{ID: "1", Title: "X", Status: models.StatusTodo}, 0))
	f.ch.push(frame(t, "cardMoved", "board:b1", map[string]any{"id": "1", "status": "Done"}, 0))
	f.ch.push(frame(t, protocol.EventTaskDeleted, "board:b1", "1", 0))

	got, ok := f.e.Snapshot().Task("1")
	require.True(t, ok)
	require.Equal(t, models.StatusDone, got.Status)
	require.Equal(t, "b1", got.BoardID)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	f := newFixture(t)
	f.api.tasks["b1"] = []models.Task{{ID: "1", Tags: []string{"a"}, BoardID: "b1"}}
	f.open(t, "b1")

	s := f.e.Snapshot()
	s.Tasks[0].Tags[0] = "mutated"
	s.Tasks[0].Title = "mutated"

	got, _ := f.e.Snapshot().Task("1")
	require.Equal(t, []string{"a"}, got.Tags)
	require.Empty(t, got.Title)
}
