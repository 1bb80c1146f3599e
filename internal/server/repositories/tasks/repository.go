// Package tasks stores board tasks and their versions.
package tasks

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

type Repository interface {
	// Create stores t with version 1.
	Create(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	ListByBoard(ctx context.Context, boardID string) ([]models.Task, error)
	// Update writes every mutable field of t, bumps its version by one and
	// stores the new version and timestamp back into t.
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id string) error
}
