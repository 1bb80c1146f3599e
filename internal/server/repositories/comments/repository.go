// Package comments stores task comments. Comments are append-only.
package comments

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Comment) error
	// ListByTask returns the thread oldest first, each comment with its
	// author.
	ListByTask(ctx context.Context, taskID string) ([]models.CommentView, error)
}
