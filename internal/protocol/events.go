package protocol

// Events emitted by clients.
const (
	EventJoinBoard  = "joinBoard"
	EventLeaveBoard = "leaveBoard"
	EventJoinTask   = "joinTask"
	EventLeaveTask  = "leaveTask"
	EventUpdateTask = "updateTask"
	EventCreateTask = "createTask"
	EventEditTask   = "editTask"
	EventDeleteTask = "deleteTask"
	EventInviteSent = "inviteSent"
	EventAssignTask = "taskAssigned"
	EventAddComment = "commentAdded"
	EventAddCollab  = "collaboratorAdded"
)

// Events pushed by the server to room members.
const (
	EventTaskCreated       = "taskCreated"
	EventTaskUpdated       = "taskUpdated"
	EventTaskEdited        = "taskEdited"
	EventTaskDeleted       = "taskDeleted"
	EventTaskAssigned      = "taskAssigned"
	EventCommentAdded      = "commentAdded"
	EventNewComment        = "newComment"
	EventCollaboratorAdded = "collaboratorAdded"
	EventError             = "error"
)

// Transport-level notifications synthesized by the channel itself.
const (
	EventConnect      = "connect"
	EventConnectError = "connect_error"
)

var relayed = map[string]string{
	EventCreateTask: EventTaskCreated,
	EventUpdateTask: EventTaskUpdated,
	EventEditTask:   EventTaskEdited,
	EventDeleteTask: EventTaskDeleted,
	EventAssignTask: EventTaskAssigned,
	EventAddComment: EventCommentAdded,
	EventAddCollab:  EventCollaboratorAdded,
}

// PushName returns the event name the server broadcasts for a client
// emitted event. Membership events and inviteSent are not relayed.
func PushName(emitted string) (string, bool) {
	n, ok := relayed[emitted]
	return n, ok
}

// IsMembership reports whether the event is a room join or leave request.
func IsMembership(event string) bool {
	switch event {
	case EventJoinBoard, EventLeaveBoard, EventJoinTask, EventLeaveTask:
		return true
	}
	return false
}
