package client

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/client/models"
)

type Client interface {
	Register(ctx context.Context, name, email, password string) (models.Session, error)
	Login(ctx context.Context, email, password string) (models.Session, error)
	Refresh(ctx context.Context) (models.Session, error)
	Logout(ctx context.Context) error

	ListBoards(ctx context.Context) ([]models.Board, error)
	GetBoard(ctx context.Context, boardID string) (models.Board, error)
	CreateBoard(ctx context.Context, title string) (models.Board, error)
	ListCollaborators(ctx context.Context, boardID string) ([]models.Collaborator, error)
	Invite(ctx context.Context, boardID, email string) (models.Collaborator, error)

	ListTasks(ctx context.Context, boardID string) ([]models.Task, error)
	CreateTask(ctx context.Context, in models.NewTask) (models.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (models.Task, error)
	AssignTask(ctx context.Context, taskID, userID string) (models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error

	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	AddComment(ctx context.Context, taskID, content string) (models.Comment, error)
}

// TokenSource supplies the bearer credential for authenticated requests.
//
// Renew obtains a fresh credential; it returns a *SessionExpiredError when
// the server refuses. Invalidate drops the local session without contacting
// the server.
type TokenSource interface {
	Token() string
	Renew(ctx context.Context) error
	Invalidate(ctx context.Context)
}
