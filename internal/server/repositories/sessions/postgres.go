package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/common"
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

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query :=
		`INSERT INTO sessions (id, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, s.ID, s.UserID, s.ExpiresAt).Scan(&s.CreatedAt)
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query :=
		`SELECT id, user_id, expires_at, revoked_at, created_at FROM sessions
		 WHERE id = $1
		 `

	s := &models.Session{}
	var revoked sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &revoked, &s.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	return s, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	query :=
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2)
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return pgerr.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query :=
		`DELETE FROM sessions
		 WHERE expires_at < $1
		 `

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, pgerr.Wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
