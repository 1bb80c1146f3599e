package models

import "time"

// Comment is append-only: it is never edited or deleted once created.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	TaskID    string    `json:"taskId"`
}
