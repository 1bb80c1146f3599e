package tasks

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"
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

const taskColumns = `id, board_id, title, description, status, due_date, assigned_to, tags, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var (
		t        models.Task
		status   string
		due      sql.NullTime
		assignee sql.NullString
		tags     []byte
	)
	if err := s.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &status, &due, &assignee, &tags,
		&t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	t.Status = models.Status(status)
	if due.Valid {
		t.DueDate = &due.Time
	}
	t.AssignedTo = assignee.String
	if len(tags) > 0 {
		if err := sonic.ConfigStd.Unmarshal(tags, &t.Tags); err != nil {
			return models.Task{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	return sonic.ConfigStd.MarshalToString(tags)
}

func nullTime(t *models.Task) sql.NullTime {
	if t.DueDate == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.DueDate, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Task) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO tasks (id, board_id, title, description, status, due_date, assigned_to, tags, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 RETURNING version, created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		t.ID, t.BoardID, t.Title, t.Description, string(t.Status), nullTime(t), nullString(t.AssignedTo), tags).
		Scan(&t.Version, &t.CreatedAt, &t.UpdatedAt)
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return &t, nil
}

func (r *PostgresRepository) ListByBoard(ctx context.Context, boardID string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	defer rows.Close()

	result := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *models.Task) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}

	query :=
		`UPDATE tasks SET title = $2, description = $3, status = $4, due_date = $5,
		     assigned_to = $6, tags = $7, version = version + 1, updated_at = now()
		 WHERE id = $1
		 RETURNING version, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		t.ID, t.Title, t.Description, string(t.Status), nullTime(t), nullString(t.AssignedTo), tags).
		Scan(&t.Version, &t.UpdatedAt)
	return pgerr.Wrap(err)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
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
