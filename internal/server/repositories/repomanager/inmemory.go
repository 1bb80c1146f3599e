package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/boards"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/comments"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/memory"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/users"
)

// InMemoryRepositoryManager keeps everything in a memory.Store. Units of
// work run one at a time but are not rolled back on error.
type InMemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) Users() users.Repository       { return m.store.Users() }
func (m *InMemoryRepositoryManager) Sessions() sessions.Repository { return m.store.Sessions() }
func (m *InMemoryRepositoryManager) Boards() boards.Repository     { return m.store.Boards() }
func (m *InMemoryRepositoryManager) Tasks() tasks.Repository       { return m.store.Tasks() }
func (m *InMemoryRepositoryManager) Comments() comments.Repository { return m.store.Comments() }

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *InMemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Ping(context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
