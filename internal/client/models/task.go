package models

import (
	"errors"
	"slices"
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

var ErrUnknownStatus = errors.New("unknown status")

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus accepts the canonical column names and the short forms
// "todo", "doing"/"progress" and "done", case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "to do", "todo":
		return StatusTodo, nil
	case "in progress", "inprogress", "progress", "doing":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", ErrUnknownStatus
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	BoardID     string     `json:"boardId"`
	Version     int64      `json:"version,omitempty"`
}

// Clone returns a copy that shares no memory with t.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Tags = slices.Clone(t.Tags)
	return c
}

// NewTask is the create-task request body.
type NewTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	BoardID     string     `json:"boardId"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// TaskPatch is a partial task. Nil fields are absent from the payload
// and never overwrite held values. An empty assignee or tag list clears
// the field; ClearDueDate removes the due date.
type TaskPatch struct {
	ID           string     `json:"id,omitempty"`
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	AssignedTo   *string    `json:"assignedTo,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
	BoardID      *string    `json:"boardId,omitempty"`
	Version      int64      `json:"version,omitempty"`
}

// Empty reports whether the patch carries no field changes.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.AssignedTo == nil && p.Tags == nil && p.BoardID == nil
}

// Apply merges the present fields of p into t.
func (t *Task) Apply(p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	} else if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.Tags != nil {
		t.Tags = nil
		if len(*p.Tags) > 0 {
			t.Tags = slices.Clone(*p.Tags)
		}
	}
	if p.BoardID != nil {
		t.BoardID = *p.BoardID
	}
	if p.Version > t.Version {
		t.Version = p.Version
	}
}

// PatchFromTask builds a patch carrying every field of t. Empty fields
// are sent as explicit clears so a receiver drops values it still holds.
func PatchFromTask(t Task) TaskPatch {
	tags := []string{}
	if len(t.Tags) > 0 {
		tags = slices.Clone(t.Tags)
	}
	p := TaskPatch{
		ID:          t.ID,
		Title:       &t.Title,
		Description: &t.Description,
		Status:      &t.Status,
		AssignedTo:  &t.AssignedTo,
		Tags:        &tags,
		BoardID:     &t.BoardID,
		Version:     t.Version,
	}
	if t.DueDate != nil {
		d := *t.DueDate
		p.DueDate = &d
	} else {
		p.ClearDueDate = true
	}
	return p
}

// ParseTags splits a comma separated list, trimming blanks and dropping
// empty items.
func ParseTags(s string) []string {
	var out []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
