package boards

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

func (r *PostgresRepository) Create(ctx context.Context, b *models.Board) error {
	query :=
		`INSERT INTO boards (id, title, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, b.ID, b.Title, b.OwnerID).Scan(&b.CreatedAt)
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Board, error) {
	query :=
		`SELECT id, title, owner_id, created_at FROM boards
		 WHERE id = $1
		 `

	b := &models.Board{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.OwnerID, &b.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return b, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.BoardView, error) {
	query :=
		`SELECT b.id, b.title, u.id, u.name, u.email
		 FROM boards b
		 JOIN board_members m ON m.board_id = b.id
		 JOIN users u ON u.id = b.owner_id
		 WHERE m.user_id = $1
		 ORDER BY b.created_at, b.id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []models.BoardView{}
	for rows.Next() {
		var v models.BoardView
		if err := rows.Scan(&v.ID, &v.Title, &v.Owner.ID, &v.Owner.Name, &v.Owner.Email); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, boardID, userID string, role models.Role) error {
	query :=
		`INSERT INTO board_members (board_id, user_id, role)
		 VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, boardID, userID, string(role))
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) Members(ctx context.Context, boardID string) ([]models.Collaborator, error) {
	query :=
		`SELECT u.id, u.email, u.name, m.role
		 FROM board_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.board_id = $1
		 ORDER BY m.role = 'owner' DESC, m.created_at, u.id
		 `

	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []models.Collaborator{}
	for rows.Next() {
		var c models.Collaborator
		var role string
		if err := rows.Scan(&c.UserID, &c.Email, &c.Name, &role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Role = models.Role(role)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Role(ctx context.Context, boardID, userID string) (models.Role, error) {
	query :=
		`SELECT role FROM board_members
		 WHERE board_id = $1 AND user_id = $2
		 `

	var role string
	if err := r.db.QueryRowContext(ctx, query, boardID, userID).Scan(&role); err != nil {
		return "", pgerr.Wrap(err)
	}
	return models.Role(role), nil
}
