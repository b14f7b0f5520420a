package buffer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entities that can be buffered.
const (
	EntityProfile = "profile"
	EntityTask    = "task"
)

const (
	defaultPriority = 3
	maxPriority     = 5
)

// ErrFull is returned by Enqueue once the store holds its configured maximum.
var ErrFull = errors.New("buffer: store is full")

// Item is a write that could not reach Postgres and waits to be replayed. Lower
// priorities drain first; equal priorities drain in arrival order.
type Item struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

// NewItem encodes payload into a fresh item. Every call gets its own ID so successive
// writes to the same record are all kept.
func NewItem(entity, operation, userID string, payload any, priority int) (Item, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Item{}, fmt.Errorf("buffer: encode %s payload: %w", entity, err)
	}
	item := Item{
		UserID:    userID,
		Entity:    entity,
		Operation: operation,
		Data:      data,
		Priority:  priority,
	}
	item.normalize()
	return item, nil
}

// Decode unmarshals the payload into v.
func (i Item) Decode(v any) error {
	if len(i.Data) == 0 {
		return fmt.Errorf("buffer: item %s has no payload", i.ID)
	}
	return json.Unmarshal(i.Data, v)
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > maxPriority {
		i.Priority = defaultPriority
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
