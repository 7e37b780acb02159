package model

// TaskStatus is the workflow stage of a task. It selects the board column.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "BACKLOG"
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusInReview   TaskStatus = "IN_REVIEW"
	StatusDone       TaskStatus = "DONE"
)

// Statuses lists every status in board column order.
var Statuses = []TaskStatus{
	StatusBacklog,
	StatusTodo,
	StatusInProgress,
	StatusInReview,
	StatusDone,
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus accepts the canonical upper-case form as well as the
// lower-case, dash separated form used on the command line ("in-progress").
func ParseStatus(raw string) (TaskStatus, bool) {
	normalized := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		case c == '-' || c == ' ':
			c = '_'
		}
		normalized = append(normalized, c)
	}
	s := TaskStatus(normalized)
	return s, s.Valid()
}
