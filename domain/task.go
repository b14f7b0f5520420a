package domain

import "time"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

type TaskCategory string

const (
	CategoryWork     TaskCategory = "work"
	CategoryPersonal TaskCategory = "personal"
	CategoryFitness  TaskCategory = "fitness"
	CategoryShopping TaskCategory = "shopping"
	CategoryOther    TaskCategory = "other"
)

// Task represents a user-owned todo item.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user" validate:"required"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description" validate:"max=2000"`
	Status      TaskStatus   `json:"status" validate:"oneof=todo in-progress completed"`
	Category    TaskCategory `json:"category" validate:"oneof=work personal fitness shopping other"`
	DueDate     time.Time    `json:"dueDate" validate:"required"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Validate checks required fields and enum values.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	return ValidateStruct(t)
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// CompletedOnTime reports whether the task was completed no later than its due date.
func (t *Task) CompletedOnTime() bool {
	return t.IsCompleted() && !t.UpdatedAt.After(t.DueDate)
}

// ApplyDefaults fills status and category when the caller left them empty.
func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Category == "" {
		t.Category = CategoryOther
	}
}

// TaskPatch holds a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Category    *TaskCategory
	DueDate     *time.Time
}

// Apply copies the set fields of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
}
