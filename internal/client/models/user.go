package models

// User is the public identity of an account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is an authenticated identity plus its opaque bearer credential.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Role of a collaborator on a board.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleCollaborator Role = "collaborator"
)

type Collaborator struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

type Board struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Owner         User           `json:"owner"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}
