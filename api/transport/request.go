package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fastygo/taskboard/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskRequest is the body of task create and update calls. Absent fields stay nil so
// updates can be partial.
type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ToTask builds a new task owned by userID.
func (r TaskRequest) ToTask(userID string) (*domain.Task, error) {
	patch, err := r.ToPatch()
	if err != nil {
		return nil, err
	}
	task := &domain.Task{UserID: userID}
	patch.Apply(task)
	return task, nil
}

// ToPatch converts the request into a partial update.
func (r TaskRequest) ToPatch() (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		patch.Title = &title
	}
	patch.Description = r.Description
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	if r.Category != nil {
		category := domain.TaskCategory(*r.Category)
		patch.Category = &category
	}
	if r.DueDate != nil {
		due, err := ParseDate(*r.DueDate)
		if err != nil {
			return domain.TaskPatch{}, domain.NewValidationError(map[string]string{"dueDate": "must be a valid date"})
		}
		patch.DueDate = &due
	}
	return patch, nil
}

// ParseDate accepts RFC 3339 timestamps and bare dates (midnight UTC).
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// DecodeProfileFields reads a flat JSON object of string values. Non-string values are
// reported per field.
func DecodeProfileFields(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, domain.ErrInvalidPayload
	}

	fields := make(map[string]string, len(raw))
	problems := make(map[string]string)
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			if string(value) == "null" {
				continue
			}
			problems[key] = "must be a string"
			continue
		}
		fields[key] = s
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems)
	}
	return fields, nil
}
