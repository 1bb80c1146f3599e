package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/quickcollab/internal/client/boardsync"
	"github.com/dmitrijs2005/quickcollab/internal/client/models"
)

type printFn func(...any) (int, error)

// renderBoard prints the board column by column. Tasks are numbered in
// snapshot order so commands can refer to them by number.
func renderBoard(p printFn, snap boardsync.Snapshot) {
	if snap.BoardID == "" {
		p("No board is open.")
		return
	}
	if snap.State != boardsync.StateReady {
		p(fmt.Sprintf("Board %s is %s...", snap.BoardID, snap.State))
		return
	}

	p(fmt.Sprintf("== %s ==", snap.Board.Title))
	if snap.Degraded {
		p("(realtime updates unavailable, use 'refresh')")
	}

	index := make(map[string]int, len(snap.Tasks))
	for i, t := range snap.Tasks {
		index[t.ID] = i + 1
	}
	names := make(map[string]string, len(snap.Collaborators))
	for _, c := range snap.Collaborators {
		names[c.UserID] = firstNonEmpty(c.Name, c.Email)
	}

	for _, status := range models.Statuses {
		column := snap.Column(status)
		p(fmt.Sprintf("-- %s (%d)", status, len(column)))
		for _, t := range column {
			p(taskLine(index[t.ID], t, names, len(snap.Comments[t.ID]), snap.Expanded[t.ID]))
		}
	}

	if len(snap.Collaborators) > 0 {
		people := make([]string, 0, len(snap.Collaborators))
		for _, c := range snap.Collaborators {
			people = append(people, fmt.Sprintf("%s (%s)", firstNonEmpty(c.Name, c.Email), c.Role))
		}
		p("Collaborators: " + strings.Join(people, ", "))
	}

	for _, t := range snap.Tasks {
		if snap.Expanded[t.ID] {
			renderComments(p, t, snap.Comments[t.ID])
		}
	}
}

func taskLine(n int, t models.Task, names map[string]string, comments int, expanded bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%3d. %s", n, t.Title)
	if t.AssignedTo != "" {
		fmt.Fprintf(&b, " @%s", firstNonEmpty(names[t.AssignedTo], t.AssignedTo))
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, " due %s", t.DueDate.Format(dueDateLayout))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, " #%s", strings.Join(t.Tags, " #"))
	}
	if expanded {
		fmt.Fprintf(&b, " [%d comments]", comments)
	}
	return b.String()
}

func renderComments(p printFn, t models.Task, thread []models.Comment) {
	p(fmt.Sprintf("Comments on %q:", t.Title))
	if len(thread) == 0 {
		p("  (none)")
		return
	}
	for _, c := range thread {
		p(fmt.Sprintf("  %s %s: %s", c.CreatedAt.Format("2006-01-02 15:04"), firstNonEmpty(c.User.Name, c.User.ID), c.Content))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
