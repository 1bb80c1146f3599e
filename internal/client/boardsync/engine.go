package boardsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/client/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoBoard     = errors.New("no board open")
	ErrUnknownTask = errors.New("unknown task")
)

// maxPending bounds the events buffered while a snapshot loads.
const maxPending = 1024

// API is the REST surface the engine uses.
type API interface {
	GetBoard(ctx context.Context, boardID string) (models.Board, error)
	ListCollaborators(ctx context.Context, boardID string) ([]models.Collaborator, error)
	Invite(ctx context.Context, boardID, email string) (models.Collaborator, error)
	ListTasks(ctx context.Context, boardID string) ([]models.Task, error)
	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error)
	AssignTask(ctx context.Context, taskID, userID string) (models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	AddComment(ctx context.Context, taskID, content string) (models.Comment, error)
}

// Channel is the realtime surface the engine uses.
type Channel interface {
	Join(room string) error
	Leave(room string) error
	Emit(event, room string, payload any, version int64) error
	Subscribe(h realtime.Handler) func()
	OnStatus(h realtime.StatusHandler) func()
}

type Option func(*Engine)

// WithBindings replaces DefaultBindings.
func WithBindings(b EventBindings) Option {
	return func(e *Engine) { e.bindings = b }
}

// WithRefetchTimeout bounds the refetch started after a reconnect.
func WithRefetchTimeout(d time.Duration) Option {
	return func(e *Engine) { e.refetchTimeout = d }
}

type Engine struct {
	api            API
	ch             Channel
	log            logging.Logger
	bindings       EventBindings
	refetchTimeout time.Duration

	mu       sync.Mutex
	boardID  string
	state    State
	degraded bool
	stale    bool
	gen      uint64
	b        *board
	pending  []protocol.Event
	rooms    map[string]bool

	lmu       sync.Mutex
	listeners map[int]func()
	nextID    int

	unsub []func()
}

// New builds an engine and subscribes it to ch. Stop undoes the
// subscription.
func New(api API, ch Channel, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		api:            api,
		ch:             ch,
		log:            log.With("component", "boardsync"),
		bindings:       DefaultBindings(),
		refetchTimeout: 30 * time.Second,
		b:              newBoard(),
		rooms:          make(map[string]bool),
		listeners:      make(map[int]func()),
	}
	for _, o := range opts {
		o(e)
	}
	e.unsub = append(e.unsub, ch.Subscribe(e.HandleEvent), ch.OnStatus(e.handleStatus))
	return e
}

// Stop detaches the engine from the channel.
func (e *Engine) Stop() {
	for _, u := range e.unsub {
		u()
	}
	e.unsub = nil
}

// Subscribe registers fn to run after every state change.
func (e *Engine) Subscribe(fn func()) func() {
	e.lmu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.lmu.Unlock()
	return func() {
		e.lmu.Lock()
		delete(e.listeners, id)
		e.lmu.Unlock()
	}
}

func (e *Engine) notify() {
	e.lmu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.b.snapshot()
	s.BoardID = e.boardID
	s.State = e.state
	s.Degraded = e.degraded
	s.Stale = e.stale
	return s
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Open makes boardID the current board: it joins the board room and loads
// the board, its tasks and its collaborators in parallel. A board that was
// open before is closed first.
func (e *Engine) Open(ctx context.Context, boardID string) error {
	if strings.TrimSpace(boardID) == "" {
		return fmt.Errorf("%w: board id is required", client.ErrValidation)
	}

	e.mu.Lock()
	leave := e.resetLocked()
	e.boardID = boardID
	e.state = StateLoading
	room := protocol.BoardRoom(boardID)
	e.rooms[room] = true
	gen := e.gen
	e.mu.Unlock()

	e.leaveRooms(leave)
	if err := e.ch.Join(room); err != nil {
		e.log.Warn(ctx, "join board room", "room", room, "error", err)
	}
	e.notify()

	return e.load(ctx, gen, boardID, nil)
}

// Refresh reloads the current board. Events arriving meanwhile are
// buffered and replayed over the new snapshot.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.boardID == "" {
		e.mu.Unlock()
		return ErrNoBoard
	}
	e.gen++
	gen, boardID := e.gen, e.boardID
	e.state = StateLoading
	e.pending = nil
	var threads []string
	for id := range e.b.comments {
		threads = append(threads, id)
	}
	e.mu.Unlock()
	e.notify()

	return e.load(ctx, gen, boardID, threads)
}

type loaded struct {
	meta     models.Board
	tasks    []models.Task
	collabs  []models.Collaborator
	comments map[string][]models.Comment
}

func (e *Engine) load(ctx context.Context, gen uint64, boardID string, threads []string) error {
	var (
		res loaded
		cmu sync.Mutex
	)
	res.comments = make(map[string][]models.Comment, len(threads))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := e.api.GetBoard(gctx, boardID)
		res.meta = b
		return err
	})
	g.Go(func() error {
		ts, err := e.api.ListTasks(gctx, boardID)
		res.tasks = ts
		return err
	})
	g.Go(func() error {
		cs, err := e.api.ListCollaborators(gctx, boardID)
		res.collabs = cs
		return err
	})
	for _, id := range threads {
		g.Go(func() error {
			cs, err := e.api.ListComments(gctx, id)
			if errors.Is(err, client.ErrNotFound) {
				return nil
			}
			cmu.Lock()
			res.comments[id] = cs
			cmu.Unlock()
			return err
		})
	}
	err := g.Wait()

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.log.Debug(ctx, "discarding superseded load", "board_id", boardID)
		return nil
	}
	if err != nil {
		e.mu.Unlock()
		e.log.Warn(ctx, "board load failed", "board_id", boardID, "error", err)
		return fmt.Errorf("load board %s: %w", boardID, err)
	}
	leave := e.installLocked(res)
	e.mu.Unlock()

	e.leaveRooms(leave)
	e.log.Info(ctx, "board ready", "board_id", boardID, "tasks", len(res.tasks))
	e.notify()
	return nil
}

// installLocked replaces state with a snapshot and replays the buffer.
func (e *Engine) installLocked(res loaded) []string {
	prev := e.b
	nb := newBoard()
	nb.meta = res.meta
	nb.collaborators = res.collabs
	if nb.collaborators == nil {
		nb.collaborators = res.meta.Collaborators
	}
	for _, t := range res.tasks {
		if _, gone := prev.deleted[t.ID]; gone {
			continue
		}
		nb.put(t)
	}
	nb.deleted = prev.deleted
	for id, thread := range prev.comments {
		if _, ok := nb.tasks[id]; !ok {
			continue
		}
		nb.comments[id] = mergeComments(res.comments[id], thread)
		nb.expanded[id] = prev.expanded[id]
	}
	e.b = nb

	pending := e.pending
	e.pending = nil
	e.state = StateReady
	e.stale = false
	var leave []string
	for _, ev := range pending {
		_, l := e.applyLocked(ev)
		leave = append(leave, l...)
	}
	return leave
}

// Close leaves every room the engine joined and drops all board state.
func (e *Engine) Close() {
	e.mu.Lock()
	leave := e.resetLocked()
	e.mu.Unlock()

	e.leaveRooms(leave)
	e.notify()
}

// Reset drops all board state after logout. The channel is closed by then,
// so leaving rooms is a no-op.
func (e *Engine) Reset() {
	e.Close()
}

func (e *Engine) resetLocked() []string {
	leave := make([]string, 0, len(e.rooms))
	for r := range e.rooms {
		leave = append(leave, r)
	}
	e.rooms = make(map[string]bool)
	e.gen++
	e.boardID = ""
	e.state = StateUninitialized
	e.stale = false
	e.pending = nil
	e.b = newBoard()
	return leave
}

func (e *Engine) leaveRooms(rooms []string) {
	for _, r := range rooms {
		if err := e.ch.Leave(r); err != nil {
			e.log.Warn(context.Background(), "leave room", "room", r, "error", err)
		}
	}
}

// HandleEvent merges one pushed event into state.
func (e *Engine) HandleEvent(ev protocol.Event) {
	if _, bound := e.bindings[ev.Event]; !bound {
		return
	}

	e.mu.Lock()
	if e.boardID == "" || !e.relevantLocked(ev.Room) {
		e.mu.Unlock()
		return
	}
	if e.state == StateLoading {
		if len(e.pending) < maxPending {
			e.pending = append(e.pending, ev)
		}
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

func (e *Engine) relevantLocked(room string) bool {
	if room == "" {
		return true
	}
	return e.rooms[room]
}

func (e *Engine) handleStatus(st realtime.Status) {
	e.mu.Lock()
	prevDegraded := e.degraded
	e.degraded = st.Degraded
	refetch := st.Reconnected && e.boardID != ""
	if refetch {
		e.stale = true
	}
	e.mu.Unlock()

	if refetch {
		e.notify()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), e.refetchTimeout)
			defer cancel()
			if err := e.Refresh(ctx); err != nil && !errors.Is(err, ErrNoBoard) {
				e.log.Warn(ctx, "refetch after reconnect failed", "error", err)
			}
		}()
		return
	}
	if prevDegraded != st.Degraded {
		e.notify()
	}
}

// applyLocked runs the bound merge operation. It reports whether state
// changed and which rooms to leave once the lock is released.
func (e *Engine) applyLocked(ev protocol.Event) (bool, []string) {
	op := e.bindings[ev.Event]
	switch op {
	case OpUpsert:
		var t models.Task
		if err := ev.Bind(&t); err != nil || t.ID == "" {
			e.dropped(ev, err)
			return false, nil
		}
		if t.BoardID != "" && t.BoardID != e.boardID {
			return false, nil
		}
		version := eventVersion(ev, t.Version)
		if !e.b.accept(t.ID, version) {
			return false, nil
		}
		if t.BoardID == "" {
			t.BoardID = e.boardID
		}
		t.Version = max(t.Version, version)
		e.b.put(t)
		return true, nil

	case OpPatch:
		var p models.TaskPatch
		if err := ev.Bind(&p); err != nil || p.ID == "" {
			e.dropped(ev, err)
			return false, nil
		}
		cur, ok := e.b.tasks[p.ID]
		if !ok {
			return false, nil
		}
		version := eventVersion(ev, p.Version)
		if !e.b.accept(p.ID, version) {
			return false, nil
		}
		p.Version = version
		cur.Apply(p)
		e.b.put(cur)
		return true, nil

	case OpRemove:
		id, err := taskID(ev)
		if err != nil {
			e.dropped(ev, err)
			return false, nil
		}
		if _, gone := e.b.deleted[id]; gone {
			return false, nil
		}
		had := e.b.remove(id)
		var leave []string
		if room := protocol.TaskRoom(id); e.rooms[room] {
			delete(e.rooms, room)
			leave = append(leave, room)
		}
		return had, leave

	case OpAppendComment:
		var c models.Comment
		if err := ev.Bind(&c); err != nil || c.ID == "" || c.TaskID == "" {
			e.dropped(ev, err)
			return false, nil
		}
		return e.b.appendComment(c), nil

	case OpAddCollaborator:
		var c models.Collaborator
		if err := ev.Bind(&c); err != nil || (c.UserID == "" && c.Email == "") {
			e.dropped(ev, err)
			return false, nil
		}
		return e.b.addCollaborator(c), nil
	}
	return false, nil
}

func (e *Engine) dropped(ev protocol.Event, err error) {
	e.log.Warn(context.Background(), "dropping malformed event", "event", ev.Event, "error", err)
}

func eventVersion(ev protocol.Event, payload int64) int64 {
	if ev.Version > 0 {
		return ev.Version
	}
	return payload
}

// taskID accepts either a bare id string or an object with an id.
func taskID(ev protocol.Event) (string, error) {
	var id string
	if err := ev.Bind(&id); err == nil && id != "" {
		return id, nil
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := ev.Bind(&ref); err != nil {
		return "", err
	}
	if ref.ID == "" {
		return "", errors.New("missing task id")
	}
	return ref.ID, nil
}
