package users

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

// Repository stores user accounts. Emails are unique case-insensitively.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
