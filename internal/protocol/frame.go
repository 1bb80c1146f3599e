package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Frame is one realtime message in either direction.
//
// Version carries the per-entity version of the payload when the sender
// knows it; zero means unversioned.
type Frame struct {
	Event   string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Version int64           `json:"version,omitempty"`
}

// Event is an inbound frame as delivered to channel subscribers.
type Event = Frame

var ErrEmptyEvent = errors.New("frame without event name")

// NewFrame marshals payload into a frame. A nil payload leaves Data empty.
func NewFrame(event, room string, payload any, version int64) (Frame, error) {
	f := Frame{Event: event, Room: room, Version: version}
	if payload == nil {
		return f, nil
	}
	b, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	f.Data = b
	return f, nil
}

func Encode(f Frame) ([]byte, error) {
	if f.Event == "" {
		return nil, ErrEmptyEvent
	}
	return sonic.ConfigStd.Marshal(f)
}

func Decode(b []byte) (Frame, error) {
	var f Frame
	if err := sonic.ConfigStd.Unmarshal(b, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, ErrEmptyEvent
	}
	return f, nil
}

// Bind unmarshals the frame payload into v.
func (f Frame) Bind(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("%s: empty payload", f.Event)
	}
	if err := sonic.ConfigStd.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("%s: bind payload: %w", f.Event, err)
	}
	return nil
}
