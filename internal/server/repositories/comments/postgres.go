package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/quickcollab/internal/dbx"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) error {
	query :=
		`INSERT INTO comments (id, task_id, user_id, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.ID, c.TaskID, c.UserID, c.Content).Scan(&c.CreatedAt)
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) ListByTask(ctx context.Context, taskID string) ([]models.CommentView, error) {
	query :=
		`SELECT c.id, c.content, c.created_at, c.task_id, u.id, u.name, u.email
		 FROM comments c
		 JOIN users u ON u.id = c.user_id
		 WHERE c.task_id = $1
		 ORDER BY c.created_at, c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []models.CommentView{}
	for rows.Next() {
		var v models.CommentView
		if err := rows.Scan(&v.ID, &v.Content, &v.CreatedAt, &v.TaskID, &v.User.ID, &v.User.Name, &v.User.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
