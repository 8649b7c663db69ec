package domain

import "time"

type Priority string

const (
	PriorityUrgent  Priority = "urgent"
	PriorityWeek    Priority = "week"
	PrioritySomeday Priority = "someday"
)

type Task struct {
	ID          int64
	Title       string
	Description string
	Priority    Priority
	Category    Category
	DueDate     *time.Time
	DoneAt      *time.Time
	CreatedAt   time.Time
}

func (t *Task) IsDone() bool {
	return t.DoneAt != nil
}

// IsOverdue reports whether the task has a due date in the past and is
// still open.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsDone() && t.DueDate != nil && t.DueDate.Before(now)
}

func (t *Task) PriorityMarker() string {
	switch t.Priority {
	case PriorityUrgent:
		return "!"
	case PriorityWeek:
		return "~"
	default:
		return " "
	}
}
