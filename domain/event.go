package domain

import "time"

const (
	EventTaskCreated   = "task.created"
	EventTaskUpdated   = "task.updated"
	EventTaskCompleted = "task.completed"
	EventTaskDeleted   = "task.deleted"
)

// TaskEvent notifies downstream consumers about a change to a task.
type TaskEvent struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	TaskID     string     `json:"taskId"`
	UserID     string     `json:"userId"`
	Status     TaskStatus `json:"status,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
}
