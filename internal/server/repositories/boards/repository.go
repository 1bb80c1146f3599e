// Package boards stores boards and their members.
package boards

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Board) error
	Get(ctx context.Context, id string) (*models.Board, error)
	// ListForUser returns the boards userID is a member of, oldest first,
	// with the owner filled in.
	ListForUser(ctx context.Context, userID string) ([]models.BoardView, error)
	// AddMember fails with common.ErrorAlreadyExists when the user is
	// already a member.
	AddMember(ctx context.Context, boardID, userID string, role models.Role) error
	// Members lists the owner first, then collaborators in join order.
	Members(ctx context.Context, boardID string) ([]models.Collaborator, error)
	// Role returns common.ErrorNotFound for non-members.
	Role(ctx context.Context, boardID, userID string) (models.Role, error)
}
