package models

import "time"

type Comment struct {
	ID        string
	TaskID    string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// CommentView is a comment with its author, as sent to clients.
type CommentView struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	User      UserView  `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
	TaskID    string    `json:"taskId"`
}
