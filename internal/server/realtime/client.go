package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Client is one WebSocket connection. rooms is guarded by the hub mutex.
type Client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]struct{}

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, userID string) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		rooms:  map[string]struct{}{},
	}
}

// enqueue reports false when the queue is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendError(ctx context.Context, room string, err error) {
	f, ferr := protocol.NewFrame(protocol.EventError, room, errorMessage{Message: err.Error(), Code: errorCode(err)}, 0)
	if ferr != nil {
		return
	}
	data, ferr := protocol.Encode(f)
	if ferr != nil {
		return
	}
	c.enqueue(data)
}

// Serve runs the connection for userID until it fails or ctx is done. It
// blocks; the caller owns conn and must not use it afterwards.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID string) {
	c := newClient(conn, userID)
	h.register(c)
	h.log.Info(ctx, "client connected", "user", userID, "client", c.id)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	go func() {
		<-ctx.Done()
		h.unregister(c)
	}()

	h.readPump(ctx, c)
	cancel()
	h.unregister(c)
	<-done
	_ = conn.Close()
	h.log.Info(ctx, "client disconnected", "user", userID, "client", c.id)
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug(ctx, "read error", "client", c.id, "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		f, err := protocol.Decode(data)
		if err != nil {
			c.sendError(ctx, "", err)
			continue
		}
		h.handle(ctx, c, f)
	}
}

// writePump is the only writer of c.conn. It exits when the queue is
// closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = c.conn.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
