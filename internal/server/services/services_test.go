package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/server/config"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/dmitrijs2005/quickcollab/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	m        *repomanager.InMemoryRepositoryManager
	users    *UserService
	boards   *BoardService
	tasks    *TaskService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := repomanager.NewInMemoryRepositoryManager()
	cfg := &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		RefreshGrace:                time.Hour,
	}
	return &fixture{
		m:        m,
		users:    NewUserService(m, cfg),
		boards:   NewBoardService(m),
		tasks:    NewTaskService(m),
		comments: NewCommentService(m),
	}
}

func (f *fixture) register(t *testing.T, name, email string) *AuthResult {
	t.Helper()
	res, err := f.users.Register(context.Background(), name, email, "secret1")
	require.NoError(t, err)
	return res
}

// board registers an owner and a collaborator and returns their ids
// together with a board shared between them.
func (f *fixture) board(t *testing.T) (owner, collab string, b *models.BoardView) {
	t.Helper()
	ctx := context.Background()
	owner = f.register(t, "Ann", "ann@example.org").User.ID
	collab = f.register(t, "Bob", "bob@example.org").User.ID
	b, err := f.boards.Create(ctx, owner, "Roadmap")
	require.NoError(t, err)
	_, err = f.boards.Invite(ctx, owner, b.ID, "bob@example.org")
	require.NoError(t, err)
	return owner, collab, b
}
