package httpapi

import (
	"net/http"
	"testing"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type team struct {
	ann, bob, eve authResponse
	board         models.BoardView
}

// newTeam registers Ann, Bob and Eve; Ann owns a board shared with Bob.
func newTeam(t *testing.T, s *Server) team {
	t.Helper()
	tm := team{
		ann: registerUser(t, s, "Ann", "ann@example.org"),
		bob: registerUser(t, s, "Bob", "bob@example.org"),
		eve: registerUser(t, s, "Eve", "eve@example.org"),
	}

	rec := call(t, s, http.MethodPost, "/boards", tm.ann.Token, `{"title":"Roadmap"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tm.board = decode[models.BoardView](t, rec)

	rec = call(t, s, http.MethodPost, "/boards/"+tm.board.ID+"/invite", tm.ann.Token, `{"email":"bob@example.org"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return tm
}

func TestBoards(t *testing.T) {
	s := newTestServer(t)
	tm := newTeam(t, s)
	assert.Equal(t, "Roadmap", tm.board.Title)
	assert.Equal(t, tm.ann.User.ID, tm.board.Owner.ID)

	rec := call(t, s, http.MethodGet, "/boards", tm.bob.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.BoardView](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, tm.board.ID, list[0].ID)

	rec = call(t, s, http.MethodGet, "/boards", tm.eve.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(t, s, http.MethodGet, "/boards/"+tm.board.ID+"/collaborators", tm.bob.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	collabs := decode[[]models.Collaborator](t, rec)
	require.Len(t, collabs, 2)
	assert.Equal(t, models.RoleOwner, collabs[0].Role)
	assert.Equal(t, "bob@example.org", collabs[1].Email)

	rec = call(t, s, http.MethodGet, "/boards/"+tm.board.ID, tm.eve.Token, "")
	requireError(t, rec, http.StatusForbidden, common.CodeForbidden)

	rec = call(t, s, http.MethodGet, "/boards/missing", tm.ann.Token, "")
	requireError(t, rec, http.StatusNotFound, common.CodeNotFound)

	rec = call(t, s, http.MethodPost, "/boards/"+tm.board.ID+"/invite", tm.bob.Token, `{"email":"bob@example.org"}`)
	requireError(t, rec, http.StatusConflict, common.CodeConflict)

	rec = call(t, s, http.MethodPost, "/boards/"+tm.board.ID+"/invite", tm.bob.Token, `{"email":"nobody@example.org"}`)
	requireError(t, rec, http.StatusNotFound, common.CodeNotFound)
}

func TestTasksAndComments(t *testing.T) {
	s := newTestServer(t)
	tm := newTeam(t, s)

	rec := call(t, s, http.MethodPost, "/tasks", tm.ann.Token,
		`{"title":"Ship","description":"v1","boardId":"`+tm.board.ID+`","tags":["release"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[models.Task](t, rec)
	assert.Equal(t, int64(1), task.Version)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, []string{"release"}, task.Tags)

	rec = call(t, s, http.MethodPut, "/tasks/"+task.ID, tm.bob.Token, `{"status":"In Progress"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task = decode[models.Task](t, rec)
	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, int64(2), task.Version)

	rec = call(t, s, http.MethodPut, "/tasks/"+task.ID+"/assign", tm.ann.Token, `{"assignedTo":"`+tm.bob.User.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	task = decode[models.Task](t, rec)
	assert.Equal(t, tm.bob.User.ID, task.AssignedTo)
	assert.Equal(t, int64(3), task.Version)

	rec = call(t, s, http.MethodPut, "/tasks/"+task.ID+"/assign", tm.ann.Token, `{"assignedTo":"`+tm.eve.User.ID+`"}`)
	requireError(t, rec, http.StatusBadRequest, common.CodeValidation)

	rec = call(t, s, http.MethodGet, "/tasks?boardId="+tm.board.ID, tm.bob.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.Task](t, rec), 1)

	rec = call(t, s, http.MethodGet, "/tasks?boardId="+tm.board.ID, tm.eve.Token, "")
	requireError(t, rec, http.StatusForbidden, common.CodeForbidden)

	rec = call(t, s, http.MethodGet, "/tasks", tm.ann.Token, "")
	requireError(t, rec, http.StatusBadRequest, common.CodeValidation)

	rec = call(t, s, http.MethodPost, "/comments", tm.bob.Token, `{"content":"on it","taskId":"`+task.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cm := decode[models.CommentView](t, rec)
	assert.Equal(t, "Bob", cm.User.Name)

	rec = call(t, s, http.MethodGet, "/comments?taskId="+task.ID, tm.ann.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]models.CommentView](t, rec), 1)

	rec = call(t, s, http.MethodDelete, "/tasks/"+task.ID, tm.eve.Token, "")
	requireError(t, rec, http.StatusForbidden, common.CodeForbidden)

	rec = call(t, s, http.MethodDelete, "/tasks/"+task.ID, tm.ann.Token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, s, http.MethodPut, "/tasks/"+task.ID, tm.ann.Token, `{"title":"gone"}`)
	requireError(t, rec, http.StatusNotFound, common.CodeNotFound)
}
