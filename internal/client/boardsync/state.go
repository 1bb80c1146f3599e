package boardsync

import (
	"slices"
	"sort"

	"github.com/dmitrijs2005/quickcollab/internal/client/models"
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	}
	return "uninitialized"
}

// board is the state of the open board. Only the engine touches it, and
// only with the engine mutex held.
type board struct {
	meta          models.Board
	tasks         map[string]models.Task
	order         []string
	collaborators []models.Collaborator
	// comments holds a thread for every task whose comments were loaded.
	comments map[string][]models.Comment
	expanded map[string]bool
	// deleted ids never come back; late events for them are dropped.
	deleted map[string]struct{}
}

func newBoard() *board {
	return &board{
		tasks:    make(map[string]models.Task),
		comments: make(map[string][]models.Comment),
		expanded: make(map[string]bool),
		deleted:  make(map[string]struct{}),
	}
}

// accept is the version gate. An unversioned event (zero) is applied in
// arrival order; a versioned one only when newer than the held task.
func (b *board) accept(id string, version int64) bool {
	if _, gone := b.deleted[id]; gone {
		return false
	}
	if version == 0 {
		return true
	}
	cur, ok := b.tasks[id]
	return !ok || version > cur.Version
}

func (b *board) put(t models.Task) {
	if _, ok := b.tasks[t.ID]; !ok {
		b.order = append(b.order, t.ID)
	}
	b.tasks[t.ID] = t
}

// remove drops the task, its comment thread and its visibility flag.
func (b *board) remove(id string) bool {
	_, had := b.tasks[id]
	delete(b.tasks, id)
	delete(b.comments, id)
	delete(b.expanded, id)
	b.deleted[id] = struct{}{}
	if i := slices.Index(b.order, id); i >= 0 {
		b.order = slices.Delete(b.order, i, i+1)
	}
	return had
}

// appendComment adds c to a loaded thread, ignoring duplicates.
func (b *board) appendComment(c models.Comment) bool {
	thread, loaded := b.comments[c.TaskID]
	if !loaded {
		return false
	}
	if slices.ContainsFunc(thread, func(x models.Comment) bool { return x.ID == c.ID }) {
		return false
	}
	b.comments[c.TaskID] = append(thread, c)
	return true
}

// mergeComments unions a fetched thread with comments that arrived while
// the fetch was in flight, oldest first.
func mergeComments(fetched, live []models.Comment) []models.Comment {
	out := slices.Clone(fetched)
	for _, c := range live {
		if !slices.ContainsFunc(out, func(x models.Comment) bool { return x.ID == c.ID }) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (b *board) addCollaborator(c models.Collaborator) bool {
	if slices.ContainsFunc(b.collaborators, func(x models.Collaborator) bool {
		return (c.UserID != "" && x.UserID == c.UserID) || (c.Email != "" && x.Email == c.Email)
	}) {
		return false
	}
	b.collaborators = append(b.collaborators, c)
	return true
}

// Snapshot is a deep copy of engine state for rendering.
type Snapshot struct {
	BoardID  string
	State    State
	Degraded bool
	// Stale is set after a reconnect until the refetch lands.
	Stale         bool
	Board         models.Board
	Tasks         []models.Task
	Collaborators []models.Collaborator
	Comments      map[string][]models.Comment
	Expanded      map[string]bool
}

// Column returns the tasks with the given status, in board order.
func (s Snapshot) Column(status models.Status) []models.Task {
	var out []models.Task
	for _, t := range s.Tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

func (s Snapshot) Task(id string) (models.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

func (b *board) snapshot() Snapshot {
	s := Snapshot{
		Board:         b.meta,
		Tasks:         make([]models.Task, 0, len(b.order)),
		Collaborators: slices.Clone(b.collaborators),
		Comments:      make(map[string][]models.Comment, len(b.comments)),
		Expanded:      make(map[string]bool, len(b.expanded)),
	}
	s.Board.Collaborators = slices.Clone(b.meta.Collaborators)
	for _, id := range b.order {
		s.Tasks = append(s.Tasks, b.tasks[id].Clone())
	}
	for id, thread := range b.comments {
		s.Comments[id] = slices.Clone(thread)
	}
	for id, v := range b.expanded {
		s.Expanded[id] = v
	}
	return s
}
