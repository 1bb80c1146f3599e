package models

import "time"

type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserView is the public part of a user.
type UserView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (u User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Session is one issued access token, keyed by its jti. Revoked sessions
// are refused even while the token itself is still valid.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (s Session) Revoked() bool {
	return s.RevokedAt != nil
}
