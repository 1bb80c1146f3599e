// Package realtime maintains the single reconnecting WebSocket of a
// session. Rooms are reference counted: the network join goes out on the
// first Join of a room and the network leave on the last Leave. After every
// reconnect all live rooms are joined again and subscribers are told that
// cached state may be stale.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

var (
	ErrDegradedRealtime = errors.New("realtime updates unavailable")
	ErrNotConnected     = errors.New("realtime channel not connected")
	ErrClosed           = errors.New("realtime channel closed")
)

type Config struct {
	// URL of the WebSocket endpoint, e.g. ws://localhost:8080/ws.
	URL string
	// DegradedAfter is the number of consecutive failed connection
	// attempts after which the channel reports itself degraded.
	DegradedAfter int
	MinBackoff    time.Duration
	MaxBackoff    time.Duration
	WriteTimeout  time.Duration
	// ReadTimeout bounds the silence tolerated between inbound frames or
	// pings before the connection is considered dead.
	ReadTimeout time.Duration
	Dialer      *websocket.Dialer
}

func (c *Config) setDefaults() {
	if c.DegradedAfter <= 0 {
		c.DegradedAfter = 3
	}
	if c.MinBackoff <= 0 {
		c.MinBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 90 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
}

// Status describes the connection after a change.
type Status struct {
	Connected bool
	// Reconnected is set on every successful connect after the first one.
	Reconnected bool
	Degraded    bool
	Err         error
}

type (
	Handler       func(protocol.Event)
	StatusHandler func(Status)
)

type Channel struct {
	cfg   Config
	token func() string
	log   logging.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	rooms      map[string]int
	handlers   map[int]Handler
	statusSubs map[int]StatusHandler
	nextID     int
	degraded   bool
	everUp     bool
	started    bool
	closed     bool
	cancel     context.CancelFunc
	done       chan struct{}

	// memberMu orders room membership frames: a join or leave is sent
	// before the next membership change, and reconnect re-joins go out
	// before any later Leave.
	memberMu sync.Mutex
	writeMu  sync.Mutex

	// rejoinHook runs after the room list is taken on connect. Test seam.
	rejoinHook func()
}

// New builds a channel. token is read on every connection attempt so a
// renewed credential is picked up on reconnect.
func New(cfg Config, token func() string, log logging.Logger) *Channel {
	cfg.setDefaults()
	return &Channel{
		cfg:        cfg,
		token:      token,
		log:        log.With("component", "realtime"),
		rooms:      make(map[string]int),
		handlers:   make(map[int]Handler),
		statusSubs: make(map[int]StatusHandler),
		done:       make(chan struct{}),
	}
}

// Start launches the connection loop. It is a no-op after the first call.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Close stops the loop, drops the connection and forgets all rooms.
// Calling it again is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.conn = nil
	c.rooms = make(map[string]int)
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if started {
		<-c.done
	}
	c.log.Info(context.Background(), "channel closed")
	return nil
}

func (c *Channel) Subscribe(h Handler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.handlers, id)
		c.mu.Unlock()
	}
}

func (c *Channel) OnStatus(h StatusHandler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.statusSubs[id] = h
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.statusSubs, id)
		c.mu.Unlock()
	}
}

func (c *Channel) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Refs returns the reference count of room.
func (c *Channel) Refs(room string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[room]
}

// Join adds a reference to room. Only the first reference is sent to the
// server; while disconnected it is sent on the next connect.
func (c *Channel) Join(room string) error {
	event, err := protocol.JoinEvent(room)
	if err != nil {
		return err
	}

	c.memberMu.Lock()
	defer c.memberMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rooms[room]++
	first := c.rooms[room] == 1
	conn := c.conn
	c.mu.Unlock()

	if first && conn != nil {
		c.sendMembership(conn, event, room)
	}
	return nil
}

// Leave drops a reference to room. Leaving a room that holds no
// reference does nothing.
func (c *Channel) Leave(room string) error {
	event, err := protocol.LeaveEvent(room)
	if err != nil {
		return err
	}

	c.memberMu.Lock()
	defer c.memberMu.Unlock()

	c.mu.Lock()
	n, ok := c.rooms[room]
	if !ok || c.closed {
		c.mu.Unlock()
		return nil
	}
	last := n <= 1
	if last {
		delete(c.rooms, room)
	} else {
		c.rooms[room] = n - 1
	}
	conn := c.conn
	c.mu.Unlock()

	if last && conn != nil {
		c.sendMembership(conn, event, room)
	}
	return nil
}

func (c *Channel) sendMembership(conn *websocket.Conn, event, room string) {
	_, id, _ := protocol.ParseRoom(room)
	f, err := protocol.NewFrame(event, room, id, 0)
	if err == nil {
		err = c.write(conn, f)
	}
	if err != nil {
		c.log.Warn(context.Background(), "membership frame not sent", "event", event, "room", room, "error", err)
	}
}

// Emit broadcasts a client event to the other members of room.
func (c *Channel) Emit(event, room string, payload any, version int64) error {
	f, err := protocol.NewFrame(event, room, payload, version)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn, closed := c.conn, c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}
	return c.write(conn, f)
}

func (c *Channel) write(conn *websocket.Conn, f protocol.Frame) error {
	b, err := protocol.Encode(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("write %s: %w", f.Event, err)
	}
	return nil
}

func (c *Channel) backoff() retry.Backoff {
	b := retry.NewExponential(c.cfg.MinBackoff)
	b = retry.WithCappedDuration(c.cfg.MaxBackoff, b)
	return retry.WithJitterPercent(10, b)
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	failures := 0
	for {
		var conn *websocket.Conn
		err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
			cn, err := c.dial(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures++
				c.connectFailed(ctx, failures, err)
				return retry.RetryableError(err)
			}
			conn = cn
			return nil
		})
		if err != nil || conn == nil {
			return
		}
		failures = 0

		if !c.attach(ctx, conn) {
			_ = conn.Close()
			return
		}
		c.readLoop(ctx, conn)
		c.detach(ctx, conn)

		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	q.Set("token", c.token())
	u.RawQuery = q.Encode()

	conn, resp, err := c.cfg.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	return conn, nil
}

func (c *Channel) connectFailed(ctx context.Context, failures int, err error) {
	c.log.Warn(ctx, "connect failed", "attempt", failures, "error", err)

	c.mu.Lock()
	becameDegraded := !c.degraded && failures >= c.cfg.DegradedAfter
	if becameDegraded {
		c.degraded = true
	}
	degraded := c.degraded
	c.mu.Unlock()

	st := Status{Degraded: degraded, Err: err}
	if degraded {
		st.Err = fmt.Errorf("%w: %v", ErrDegradedRealtime, err)
	}
	if becameDegraded {
		c.log.Error(ctx, "realtime degraded", "attempts", failures)
	}
	c.emitStatus(st)
	c.deliver(protocol.Event{Event: protocol.EventConnectError})
}

// attach installs conn and re-joins every live room.
func (c *Channel) attach(ctx context.Context, conn *websocket.Conn) bool {
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(c.cfg.WriteTimeout))
	})

	c.memberMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.memberMu.Unlock()
		return false
	}
	c.conn = conn
	reconnected := c.everUp
	c.everUp = true
	c.degraded = false
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	hook := c.rejoinHook
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	for _, r := range rooms {
		ev, _ := protocol.JoinEvent(r)
		c.sendMembership(conn, ev, r)
	}
	c.memberMu.Unlock()

	c.log.Info(ctx, "connected", "reconnect", reconnected, "rooms", len(rooms))
	c.emitStatus(Status{Connected: true, Reconnected: reconnected})
	c.deliver(protocol.Event{Event: protocol.EventConnect})
	return true
}

func (c *Channel) detach(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	closed := c.closed
	c.mu.Unlock()
	_ = conn.Close()

	if !closed {
		c.log.Warn(ctx, "disconnected")
		c.emitStatus(Status{})
	}
}

func (c *Channel) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug(ctx, "read stopped", "error", err)
			}
			return
		}
		ev, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn(ctx, "dropping malformed frame", "error", err)
			continue
		}
		if ev.Event == protocol.EventError {
			c.log.Warn(ctx, "server error frame", "data", string(ev.Data))
		}
		c.deliver(ev)
	}
}

func (c *Channel) deliver(ev protocol.Event) {
	c.mu.Lock()
	hs := make([]Handler, 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (c *Channel) emitStatus(st Status) {
	c.mu.Lock()
	hs := make([]StatusHandler, 0, len(c.statusSubs))
	for _, h := range c.statusSubs {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(st)
	}
}
