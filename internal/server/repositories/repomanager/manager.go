// Package repomanager hands out the server repositories, either bound to
// PostgreSQL or to the in-memory store, and runs units of work in a
// transaction.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/boards"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/comments"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/users"
)

// Repositories is one consistent set of repositories: all bound to the
// database, or all bound to the same transaction.
type Repositories interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Boards() boards.Repository
	Tasks() tasks.Repository
	Comments() comments.Repository
}

type RepositoryManager interface {
	Repositories
	// WithTx runs fn with repositories bound to one transaction, committed
	// when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	RunMigrations(ctx context.Context) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
