package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/quickcollab/internal/client/boardsync"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
)

func readerFromLines(lines ...string) *bufio.Reader {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		lines = append(lines, "")
	}
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

// capturePrint redirects printlnFn and returns the collected lines.
func capturePrint(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			parts = append(parts, toString(v))
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return ""
}

type fakeSession struct {
	cur *models.Session

	loginEmail, loginPass string
	regName               string
	err                   error
	logoutCalls           int
}

func (f *fakeSession) Current() (models.Session, bool) {
	if f.cur == nil {
		return models.Session{}, false
	}
	return *f.cur, true
}

func (f *fakeSession) Login(_ context.Context, email, password string) (models.Session, error) {
	f.loginEmail, f.loginPass = email, password
	if f.err != nil {
		return models.Session{}, f.err
	}
	f.cur = &models.Session{User: models.User{ID: "u1", Email: email}, Token: "t"}
	return *f.cur, nil
}

func (f *fakeSession) Register(_ context.Context, name, email, password string) (models.Session, error) {
	f.regName, f.loginEmail, f.loginPass = name, email, password
	if f.err != nil {
		return models.Session{}, f.err
	}
	f.cur = &models.Session{User: models.User{ID: "u1", Name: name, Email: email}, Token: "t"}
	return *f.cur, nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.logoutCalls++
	f.cur = nil
	return f.err
}

type fakeBoards struct {
	list    []models.Board
	created []string
	err     error
}

func (f *fakeBoards) ListBoards(context.Context) ([]models.Board, error) { return f.list, f.err }

func (f *fakeBoards) CreateBoard(_ context.Context, title string) (models.Board, error) {
	if f.err != nil {
		return models.Board{}, f.err
	}
	f.created = append(f.created, title)
	return models.Board{ID: "b-new", Title: title}, nil
}

// fakeEngine records calls and serves a fixed snapshot.
type fakeEngine struct {
	snap boardsync.Snapshot
	err  error

	opened    []string
	refreshed int
	closed    int
	resets    int
	created   []models.NewTask
	edits     map[string]models.TaskPatch
	moves     map[string]models.Status
	assigns   map[string]string
	deleted   []string
	expanded  []string
	collapsed []string
	comments  map[string]string
	invited   []string
	listeners []func()
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		edits:    map[string]models.TaskPatch{},
		moves:    map[string]models.Status{},
		assigns:  map[string]string{},
		comments: map[string]string{},
	}
}

func (f *fakeEngine) Open(_ context.Context, id string) error {
	f.opened = append(f.opened, id)
	return f.err
}
func (f *fakeEngine) Refresh(context.Context) error { f.refreshed++; return f.err }
func (f *fakeEngine) Close() { f.closed++ }
func (f *fakeEngine) Reset() { f.resets++ }
func (f *fakeEngine) Snapshot() boardsync.Snapshot { return f.snap }
func (f *fakeEngine) Subscribe(fn func()) func() {
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeEngine) CreateTask(_ context.Context, in models.NewTask) (models.Task, error) {
	f.created = append(f.created, in)
	return models.Task{ID: "t-new", Title: in.Title, Status: in.Status}, f.err
}
func (f *fakeEngine) EditTask(_ context.Context, id string, p models.TaskPatch) (models.Task, error) {
	f.edits[id] = p
	return models.Task{ID: id, Title: "edited"}, f.err
}
func (f *fakeEngine) MoveTask(_ context.Context, id string, s models.Status) (models.Task, error) {
	f.moves[id] = s
	return models.Task{ID: id, Status: s}, f.err
}
func (f *fakeEngine) AssignTask(_ context.Context, id, userID string) (models.Task, error) {
	f.assigns[id] = userID
	return models.Task{ID: id, AssignedTo: userID}, f.err
}
func (f *fakeEngine) DeleteTask(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}
func (f *fakeEngine) ExpandComments(_ context.Context, id string) ([]models.Comment, error) {
	f.expanded = append(f.expanded, id)
	return nil, f.err
}
func (f *fakeEngine) CollapseComments(id string) { f.collapsed = append(f.collapsed, id) }
func (f *fakeEngine) AddComment(_ context.Context, id, content string) (models.Comment, error) {
	f.comments[id] = content
	return models.Comment{TaskID: id, Content: content}, f.err
}
func (f *fakeEngine) Invite(_ context.Context, email string) (models.Collaborator, error) {
	f.invited = append(f.invited, email)
	return models.Collaborator{Email: email, Role: models.RoleCollaborator}, f.err
}

// readySnapshot is a loaded board with three tasks and two members.
func readySnapshot() boardsync.Snapshot {
	return boardsync.Snapshot{
		BoardID: "b1",
		State:   boardsync.StateReady,
		Board:   models.Board{ID: "b1", Title: "Roadmap"},
		Tasks: []models.Task{
			{ID: "aaa111", Title: "Write docs", Status: models.StatusTodo},
			{ID: "aab222", Title: "Ship", Status: models.StatusInProgress, AssignedTo: "u2"},
			{ID: "ccc333", Title: "Plan", Status: models.StatusDone, Tags: []string{"q3"}},
		},
		Collaborators: []models.Collaborator{
			{UserID: "u1", Email: "ann@example.org", Name: "Ann", Role: models.RoleOwner},
			{UserID: "u2", Email: "bob@example.org", Name: "Bob", Role: models.RoleCollaborator},
		},
		Comments: map[string][]models.Comment{},
		Expanded: map[string]bool{},
	}
}

// newTestApp returns a logged-in app whose realtime side is eng.
func newTestApp(eng *fakeEngine, input ...string) (*App, *fakeSession) {
	sess := &fakeSession{cur: &models.Session{User: models.User{ID: "u1", Email: "ann@example.org"}, Token: "t"}}
	a := &App{
		log:     logging.Discard(),
		session: sess,
		boards:  &fakeBoards{},
		reader:  readerFromLines(input...),
		out:     &strings.Builder{},
	}
	a.connect = func(context.Context) (boardEngine, func()) { return eng, func() { eng.Reset() } }
	a.onSession(sess.cur)
	return a, sess
}
