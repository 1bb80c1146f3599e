package boardsync

import "github.com/dmitrijs2005/quickcollab/internal/protocol"

// Op is a merge operation applied to board state.
type Op int

const (
	// OpUpsert inserts a full task or replaces the held one.
	OpUpsert Op = iota + 1
	// OpPatch merges the fields present in the payload into a held task.
	OpPatch
	// OpRemove deletes a task together with its comment cache.
	OpRemove
	OpAppendComment
	OpAddCollaborator
)

func (o Op) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpPatch:
		return "patch"
	case OpRemove:
		return "remove"
	case OpAppendComment:
		return "appendComment"
	case OpAddCollaborator:
		return "addCollaborator"
	}
	return "unknown"
}

// EventBindings maps pushed event names to merge operations. Events with
// no binding are ignored.
type EventBindings map[string]Op

// DefaultBindings covers every event the server pushes. taskUpdated
// (drag) and taskEdited (form) are the same patch.
func DefaultBindings() EventBindings {
	return EventBindings{
		protocol.EventTaskCreated:       OpUpsert,
		protocol.EventTaskUpdated:       OpPatch,
		protocol.EventTaskEdited:        OpPatch,
		protocol.EventTaskAssigned:      OpPatch,
		protocol.EventTaskDeleted:       OpRemove,
		protocol.EventCommentAdded:      OpAppendComment,
		protocol.EventNewComment:        OpAppendComment,
		protocol.EventCollaboratorAdded: OpAddCollaborator,
	}
}
