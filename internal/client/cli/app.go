package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/client/boardsync"
	"github.com/dmitrijs2005/quickcollab/internal/client/client"
	"github.com/dmitrijs2005/quickcollab/internal/client/config"
	"github.com/dmitrijs2005/quickcollab/internal/client/health"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
	"github.com/dmitrijs2005/quickcollab/internal/client/realtime"
	"github.com/dmitrijs2005/quickcollab/internal/client/session"
	"github.com/dmitrijs2005/quickcollab/internal/client/storage"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionAPI is the part of session.Store the commands use.
type sessionAPI interface {
	Current() (models.Session, bool)
	Login(ctx context.Context, email, password string) (models.Session, error)
	Register(ctx context.Context, name, email, password string) (models.Session, error)
	Logout(ctx context.Context) error
}

// boardsAPI covers the dashboard calls that live outside a board.
type boardsAPI interface {
	ListBoards(ctx context.Context) ([]models.Board, error)
	CreateBoard(ctx context.Context, title string) (models.Board, error)
}

// boardEngine is the surface of boardsync.Engine the commands drive.
type boardEngine interface {
	Open(ctx context.Context, boardID string) error
	Refresh(ctx context.Context) error
	Close()
	Reset()
	Snapshot() boardsync.Snapshot
	Subscribe(fn func()) func()

	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
	EditTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)
	MoveTask(ctx context.Context, id string, status models.Status) (models.Task, error)
	AssignTask(ctx context.Context, id, userID string) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ExpandComments(ctx context.Context, id string) ([]models.Comment, error)
	CollapseComments(id string)
	AddComment(ctx context.Context, id, content string) (models.Comment, error)
	Invite(ctx context.Context, email string) (models.Collaborator, error)
}

// pinger reports whether the server is reachable.
type pinger interface {
	Ping(ctx context.Context) error
}

// connectFunc starts the realtime half of a session and returns the engine
// bound to it together with the function that tears both down.
type connectFunc func(ctx context.Context) (boardEngine, func())

type App struct {
	config  *config.Config
	log     logging.Logger
	session sessionAPI
	boards  boardsAPI
	probe   pinger
	connect connectFunc
	reader  *bufio.Reader
	out     io.Writer
	closers []func()

	baseCtx context.Context

	mu         sync.Mutex
	Mode       Mode
	board      boardEngine
	disconnect func()
	unwatch    func()
	userID     string
	userName   string
	lastBoards []models.Board

	// changed is set by the engine and cleared when the board is shown.
	changed atomic.Bool
}

// NewApp opens the local database, restores a persisted session and wires
// the session store, the API client, the realtime channel and the board
// engine together.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	repos, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.APIBaseURL)
	store := session.New(api, repos.Metadata, log)
	api.SetTokenSource(store)

	probe, err := health.NewProbe(c.HealthAddr)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	a := &App{
		config:  c,
		log:     log,
		session: store,
		boards:  api,
		probe:   probe,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		baseCtx: context.Background(),
		closers: []func(){func() { _ = probe.Close() }, func() { _ = repos.Close() }},
	}
	a.connect = func(ctx context.Context) (boardEngine, func()) {
		ch := realtime.New(realtime.Config{URL: c.RealtimeURL}, store.Token, log)
		engine := boardsync.New(api, ch, log)
		ch.Start(ctx)
		return engine, func() {
			_ = ch.Close()
			engine.Reset()
			engine.Stop()
		}
	}

	store.Subscribe(a.onSession)
	if err := store.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close tears down the realtime session and releases local resources.
func (a *App) Close() {
	a.onSession(nil)
	for _, c := range a.closers {
		c()
	}
}

// onSession follows the session store: a session brings the realtime
// channel up, its end brings it down and drops all board state. A session
// for a different user replaces the previous user's channel and board.
func (a *App) onSession(sess *models.Session) {
	a.mu.Lock()
	if sess != nil && a.board != nil && a.userID == sess.User.ID {
		a.userName = sess.User.Email
		a.mu.Unlock()
		return
	}

	disconnect, unwatch := a.disconnect, a.unwatch
	a.board, a.disconnect, a.unwatch = nil, nil, nil
	a.userID, a.userName = "", ""
	a.lastBoards = nil
	a.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	if disconnect != nil {
		disconnect()
	}
	a.changed.Store(false)

	if sess == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID, a.userName = sess.User.ID, sess.User.Email
	if a.board == nil && a.connect != nil {
		a.board, a.disconnect = a.connect(a.baseCtx)
		a.unwatch = a.board.Subscribe(func() { a.changed.Store(true) })
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(context.Background(), fmt.Sprintf("Switched to %s mode", mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

// Run starts the connectivity watcher and blocks in the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	a.mu.Lock()
	a.baseCtx = ctx
	a.mu.Unlock()

	if a.probe != nil {
		a.checkOnline(ctx)
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	printlnFn("Welcome to QuickCollab (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	if a.session == nil {
		return false
	}
	_, ok := a.session.Current()
	return ok
}

// engine returns the board engine of the active session.
func (a *App) engine() (boardEngine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.board == nil {
		return nil, session.ErrNotLoggedIn
	}
	return a.board, nil
}

// status is shown in the prompt: user, connectivity, open board and a
// marker when the board changed since it was last shown.
func (a *App) status() string {
	a.mu.Lock()
	user, mode, board := a.userName, a.Mode, a.board
	a.mu.Unlock()

	s := user
	if mode != "" {
		s = joinNonEmpty(s, string(mode))
	}
	if board != nil {
		snap := board.Snapshot()
		if snap.BoardID != "" {
			title := snap.Board.Title
			if title == "" {
				title = snap.BoardID
			}
			s = joinNonEmpty(s, title)
		}
		if snap.Degraded {
			s = joinNonEmpty(s, "realtime degraded")
		}
		if a.changed.Load() && snap.State == boardsync.StateReady {
			s += " *"
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.probe.Ping(ctx)
	cancel()

	if err != nil {
		if a.mode() != ModeOffline {
			a.setMode(ModeOffline)
		}
		return
	}
	if a.mode() != ModeOnline {
		a.setMode(ModeOnline)
	}
}

// StartOnlineStatusWatcher probes the health endpoint every interval and
// flips Mode accordingly. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
