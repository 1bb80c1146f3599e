// Package memory keeps every server table in process memory. It backs
// boardd when no database DSN is configured and the service tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickcollab/internal/common"
	"github.com/dmitrijs2005/quickcollab/internal/server/models"
)

type member struct {
	role   models.Role
	joined int
}

// Store holds all tables behind one mutex. The Users, Sessions, Boards,
// Tasks and Comments views implement the repository interfaces.
type Store struct {
	mu       sync.RWMutex
	seq      int
	order    map[string]int
	now      func() time.Time
	users    map[string]models.User
	sessions map[string]models.Session
	boards   map[string]models.Board
	members  map[string]map[string]member
	tasks    map[string]models.Task
	comments []models.Comment
}

func NewStore() *Store {
	return &Store{
		order:    map[string]int{},
		now:      time.Now,
		users:    map[string]models.User{},
		sessions: map[string]models.Session{},
		boards:   map[string]models.Board{},
		members:  map[string]map[string]member{},
		tasks:    map[string]models.Task{},
	}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Sessions() *Sessions { return &Sessions{s} }
func (s *Store) Boards() *Boards     { return &Boards{s} }
func (s *Store) Tasks() *Tasks       { return &Tasks{s} }
func (s *Store) Comments() *Comments { return &Comments{s} }

type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, common.ErrorAlreadyExists
		}
	}
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return user, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

type Sessions struct{ s *Store }

func (r *Sessions) Create(_ context.Context, sess *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[sess.UserID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.sessions[sess.ID]; ok {
		return common.ErrorAlreadyExists
	}
	sess.CreatedAt = r.s.now()
	r.s.sessions[sess.ID] = *sess
	return nil
}

func (r *Sessions) Get(_ context.Context, id string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sess, nil
}

func (r *Sessions) Revoke(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return common.ErrorNotFound
	}
	if sess.RevokedAt == nil {
		sess.RevokedAt = &at
		r.s.sessions[id] = sess
	}
	return nil
}

func (r *Sessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

type Boards struct{ s *Store }

func (r *Boards) Create(_ context.Context, b *models.Board) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[b.OwnerID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.boards[b.ID]; ok {
		return common.ErrorAlreadyExists
	}
	b.CreatedAt = r.s.now()
	r.s.seq++
	r.s.order[b.ID] = r.s.seq
	r.s.boards[b.ID] = *b
	r.s.members[b.ID] = map[string]member{}
	return nil
}

func (r *Boards) Get(_ context.Context, id string) (*models.Board, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.boards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &b, nil
}

func (r *Boards) ListForUser(_ context.Context, userID string) ([]models.BoardView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []models.Board{}
	for id, b := range r.s.boards {
		if _, ok := r.s.members[id][userID]; ok {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return r.s.order[list[i].ID] < r.s.order[list[j].ID] })

	result := make([]models.BoardView, 0, len(list))
	for _, b := range list {
		result = append(result, models.BoardView{ID: b.ID, Title: b.Title, Owner: r.s.users[b.OwnerID].View()})
	}
	return result, nil
}

func (r *Boards) AddMember(_ context.Context, boardID, userID string, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	members, ok := r.s.members[boardID]
	if !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := members[userID]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.seq++
	members[userID] = member{role: role, joined: r.s.seq}
	return nil
}

func (r *Boards) Members(_ context.Context, boardID string) ([]models.Collaborator, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type row struct {
		c      models.Collaborator
		joined int
	}
	rows := []row{}
	for userID, m := range r.s.members[boardID] {
		u := r.s.users[userID]
		rows = append(rows, row{
			c:      models.Collaborator{UserID: u.ID, Email: u.Email, Name: u.Name, Role: m.role},
			joined: m.joined,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		oi, oj := rows[i].c.Role == models.RoleOwner, rows[j].c.Role == models.RoleOwner
		if oi != oj {
			return oi
		}
		return rows[i].joined < rows[j].joined
	})

	result := make([]models.Collaborator, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.c)
	}
	return result, nil
}

func (r *Boards) Role(_ context.Context, boardID, userID string) (models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.members[boardID][userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return m.role, nil
}

type Tasks struct{ s *Store }

func (r *Tasks) Create(_ context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.boards[t.BoardID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.tasks[t.ID]; ok {
		return common.ErrorAlreadyExists
	}
	now := r.s.now()
	t.Version = 1
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.seq++
	r.s.order[t.ID] = r.s.seq
	r.s.tasks[t.ID] = t.Clone()
	return nil
}

func (r *Tasks) Get(_ context.Context, id string) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := t.Clone()
	return &c, nil
}

func (r *Tasks) ListByBoard(_ context.Context, boardID string) ([]models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.Task{}
	for _, t := range r.s.tasks {
		if t.BoardID == boardID {
			result = append(result, t.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return r.s.order[result[i].ID] < r.s.order[result[j].ID] })
	return result, nil
}

func (r *Tasks) Update(_ context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.tasks[t.ID]
	if !ok {
		return common.ErrorNotFound
	}
	t.BoardID = cur.BoardID
	t.CreatedAt = cur.CreatedAt
	t.Version = cur.Version + 1
	t.UpdatedAt = r.s.now()
	r.s.tasks[t.ID] = t.Clone()
	return nil
}

func (r *Tasks) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.tasks, id)
	delete(r.s.order, id)
	r.s.comments = slices.DeleteFunc(r.s.comments, func(c models.Comment) bool { return c.TaskID == id })
	return nil
}

type Comments struct{ s *Store }

func (r *Comments) Create(_ context.Context, c *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[c.TaskID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.users[c.UserID]; !ok {
		return common.ErrorNotFound
	}
	c.CreatedAt = r.s.now()
	r.s.comments = append(r.s.comments, *c)
	return nil
}

// ListByTask keeps insertion order, which is creation order.
func (r *Comments) ListByTask(_ context.Context, taskID string) ([]models.CommentView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.CommentView{}
	for _, c := range r.s.comments {
		if c.TaskID != taskID {
			continue
		}
		result = append(result, models.CommentView{
			ID:        c.ID,
			Content:   c.Content,
			User:      r.s.users[c.UserID].View(),
			CreatedAt: c.CreatedAt,
			TaskID:    c.TaskID,
		})
	}
	return result, nil
}
