package models

import (
	"slices"
	"time"
)

type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// Task carries a version that starts at 1 and grows by one on every
// mutation.
type Task struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

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

// TaskPatch holds the fields of an update request; nil means unchanged.
// ClearDueDate removes the due date when DueDate is not set.
type TaskPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	AssignedTo   *string    `json:"assignedTo,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
}

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
		t.Tags = slices.Clone(*p.Tags)
	}
}
