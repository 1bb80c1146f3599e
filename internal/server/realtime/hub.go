// Package realtime relays client-emitted board events to the other members
// of a room over WebSocket, and optionally between server instances through
// Redis.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/logging"
	"github.com/dmitrijs2005/quickcollab/internal/protocol"
	"github.com/google/uuid"
)

// Authorizer decides whether a user may join a room.
type Authorizer interface {
	AuthorizeRoom(ctx context.Context, userID, room string) error
}

// VersionSource reports the stored version of a task.
type VersionSource interface {
	TaskVersion(ctx context.Context, taskID string) (int64, error)
}

// Envelope is a relayed frame as it travels between instances.
type Envelope struct {
	Origin string         `json:"origin"`
	Sender string         `json:"sender"`
	Frame  protocol.Frame `json:"frame"`
}

// Broker carries envelopes to the hubs of other instances.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe calls deliver for every envelope published by any instance
	// until ctx is done.
	Subscribe(ctx context.Context, deliver func(Envelope))
}

// Hub tracks connected clients and the rooms they joined. Frames are never
// echoed back to their sender.
type Hub struct {
	auth     Authorizer
	broker   Broker
	versions VersionSource
	log      logging.Logger
	instance string

	mu      sync.Mutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

type Option func(*Hub)

// WithVersions bounds the version of relayed task frames by the stored
// task version.
func WithVersions(v VersionSource) Option {
	return func(h *Hub) { h.versions = v }
}

// NewHub returns a hub. broker may be nil for a single instance.
func NewHub(auth Authorizer, broker Broker, log logging.Logger, opts ...Option) *Hub {
	h := &Hub{
		auth:     auth,
		broker:   broker,
		log:      log.With("component", "hub"),
		instance: uuid.NewString(),
		clients:  map[*Client]struct{}{},
		rooms:    map[string]map[*Client]struct{}{},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Run consumes the broker until ctx is done and then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	if h.broker != nil {
		go h.broker.Subscribe(ctx, h.deliverRemote)
	}
	<-ctx.Done()

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister drops c from every room and closes its queue. It is safe to
// call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.removeLocked(room, c)
	}
	h.mu.Unlock()
	c.shutdown()
}

func (h *Hub) removeLocked(room string, c *Client) {
	delete(c.rooms, room)
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Members reports how many local clients are in room.
func (h *Hub) Members(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

func (h *Hub) handle(ctx context.Context, c *Client, f protocol.Frame) {
	switch f.Event {
	case protocol.EventJoinBoard, protocol.EventJoinTask:
		h.join(ctx, c, f)
	case protocol.EventLeaveBoard, protocol.EventLeaveTask:
		h.leave(c, f)
	case protocol.EventInviteSent:
	default:
		h.relay(ctx, c, f)
	}
}

// roomOf returns the room a membership frame names: its room field, or a
// room built from the id carried as data.
func roomOf(f protocol.Frame) (string, error) {
	if f.Room != "" {
		if _, _, err := protocol.ParseRoom(f.Room); err != nil {
			return "", err
		}
		return f.Room, nil
	}
	var id string
	if err := f.Bind(&id); err != nil || id == "" {
		return "", protocol.ErrBadRoom
	}
	switch f.Event {
	case protocol.EventJoinBoard, protocol.EventLeaveBoard:
		return protocol.BoardRoom(id), nil
	}
	return protocol.TaskRoom(id), nil
}

func (h *Hub) join(ctx context.Context, c *Client, f protocol.Frame) {
	room, err := roomOf(f)
	if err != nil {
		c.sendError(ctx, f.Room, err)
		return
	}
	if err := h.auth.AuthorizeRoom(ctx, c.userID, room); err != nil {
		h.log.Info(ctx, "join refused", "user", c.userID, "room", room, "error", err)
		c.sendError(ctx, room, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, f protocol.Frame) {
	room, err := roomOf(f)
	if err != nil {
		return
	}
	h.mu.Lock()
	if _, ok := c.rooms[room]; ok {
		h.removeLocked(room, c)
	}
	h.mu.Unlock()
}

// relay forwards a client event under its push name to the other members
// of a room the sender has joined.
func (h *Hub) relay(ctx context.Context, c *Client, f protocol.Frame) {
	name, ok := protocol.PushName(f.Event)
	if !ok {
		c.sendError(ctx, f.Room, fmt.Errorf("%w: unknown event %q", common.ErrorValidation, f.Event))
		return
	}

	h.mu.Lock()
	_, joined := c.rooms[f.Room]
	h.mu.Unlock()
	if !joined {
		c.sendError(ctx, f.Room, fmt.Errorf("%w: join %q before emitting to it", common.ErrorForbidden, f.Room))
		return
	}

	out := protocol.Frame{Event: name, Room: f.Room, Data: f.Data, Version: h.boundVersion(ctx, f)}
	h.broadcast(ctx, out, c)

	if h.broker != nil {
		env := Envelope{Origin: h.instance, Sender: c.id, Frame: out}
		if err := h.broker.Publish(ctx, env); err != nil {
			h.log.Warn(ctx, "publish failed", "room", out.Room, "error", err)
		}
	}
}

// boundVersion caps a client-supplied version at the stored one, so a
// frame can never claim a version the server has not issued. A frame for
// a task that cannot be looked up is relayed unversioned.
func (h *Hub) boundVersion(ctx context.Context, f protocol.Frame) int64 {
	if f.Version <= 0 || h.versions == nil {
		return max(f.Version, 0)
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := f.Bind(&ref); err != nil || ref.ID == "" {
		return 0
	}
	stored, err := h.versions.TaskVersion(ctx, ref.ID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			h.log.Warn(ctx, "task version lookup failed", "task", ref.ID, "error", err)
		}
		return 0
	}
	if f.Version > stored {
		h.log.Info(ctx, "capping relayed version", "task", ref.ID, "claimed", f.Version, "stored", stored)
		return stored
	}
	return f.Version
}

// deliverRemote broadcasts an envelope published by another instance.
func (h *Hub) deliverRemote(env Envelope) {
	if env.Origin == h.instance {
		return
	}
	h.broadcast(context.Background(), env.Frame, nil)
}

// broadcast queues f for every member of its room except skip. Members
// whose queue is full are disconnected.
func (h *Hub) broadcast(ctx context.Context, f protocol.Frame, skip *Client) {
	data, err := protocol.Encode(f)
	if err != nil {
		h.log.Error(ctx, "encode frame", "event", f.Event, "error", err)
		return
	}

	h.mu.Lock()
	targets := make([]*Client, 0, len(h.rooms[f.Room]))
	for m := range h.rooms[f.Room] {
		if m != skip {
			targets = append(targets, m)
		}
	}
	h.mu.Unlock()

	for _, m := range targets {
		if !m.enqueue(data) {
			h.log.Warn(ctx, "dropping slow client", "user", m.userID)
			h.unregister(m)
		}
	}
}

// errorMessage is the payload of an error frame.
type errorMessage struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, common.ErrorForbidden):
		return common.CodeForbidden
	case errors.Is(err, common.ErrorNotFound):
		return common.CodeNotFound
	case errors.Is(err, common.ErrorValidation), errors.Is(err, protocol.ErrBadRoom):
		return common.CodeValidation
	}
	return common.CodeInternal
}
