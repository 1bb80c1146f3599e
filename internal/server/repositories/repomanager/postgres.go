package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/quickcollab/internal/dbx"
	"github.com/dmitrijs2005/quickcollab/internal/server/migrations"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/boards"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/comments"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// postgresRepos binds every repository to the same DBTX.
type postgresRepos struct {
	db dbx.DBTX
}

func (r postgresRepos) Users() users.Repository       { return users.NewPostgresRepository(r.db) }
func (r postgresRepos) Sessions() sessions.Repository { return sessions.NewPostgresRepository(r.db) }
func (r postgresRepos) Boards() boards.Repository     { return boards.NewPostgresRepository(r.db) }
func (r postgresRepos) Tasks() tasks.Repository       { return tasks.NewPostgresRepository(r.db) }
func (r postgresRepos) Comments() comments.Repository { return comments.NewPostgresRepository(r.db) }

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	postgresRepos
	db *sql.DB
}

// NewPostgresRepositoryManager opens dsn with the pgx driver and checks the
// connection.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return NewPostgresRepositoryManagerFromDB(db), nil
}

func NewPostgresRepositoryManagerFromDB(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{postgresRepos: postgresRepos{db: db}, db: db}
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepos{db: tx})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the managed database.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
