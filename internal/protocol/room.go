package protocol

import (
	"errors"
	"strings"
)

// Room kinds.
const (
	KindBoard = "board"
	KindTask  = "task"
)

var ErrBadRoom = errors.New("invalid room")

func BoardRoom(id string) string { return KindBoard + ":" + id }

func TaskRoom(id string) string { return KindTask + ":" + id }

// ParseRoom splits "board:<id>" or "task:<id>".
func ParseRoom(room string) (kind, id string, err error) {
	kind, id, ok := strings.Cut(room, ":")
	if !ok || id == "" || (kind != KindBoard && kind != KindTask) {
		return "", "", ErrBadRoom
	}
	return kind, id, nil
}

// JoinEvent returns the membership event that subscribes to room.
func JoinEvent(room string) (string, error) {
	kind, _, err := ParseRoom(room)
	if err != nil {
		return "", err
	}
	if kind == KindBoard {
		return EventJoinBoard, nil
	}
	return EventJoinTask, nil
}

// LeaveEvent returns the membership event that unsubscribes from room.
func LeaveEvent(room string) (string, error) {
	kind, _, err := ParseRoom(room)
	if err != nil {
		return "", err
	}
	if kind == KindBoard {
		return EventLeaveBoard, nil
	}
	return EventLeaveTask, nil
}
