package models

import "time"

type Role string

const (
	RoleOwner        Role = "owner"
	RoleCollaborator Role = "collaborator"
)

type Board struct {
	ID        string
	Title     string
	OwnerID   string
	CreatedAt time.Time
}

// Collaborator is a board member joined with its user record.
type Collaborator struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

type BoardView struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Owner         UserView       `json:"owner"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}
