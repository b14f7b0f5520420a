package services

import (
	"context"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/usecase"
)

// Task writes drain before profile writes.
const (
	taskPriority    = 2
	profilePriority = 3
)

// BufferBridge adapts the processor to the use-case OperationBuffer port.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	return b.submit(ctx, buffer.EntityProfile, operation, user.ID, user, profilePriority)
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return b.submit(ctx, buffer.EntityTask, operation, task.UserID, task, taskPriority)
}

func (b *BufferBridge) ProfilePending(_ context.Context, userID string) bool {
	return b.processor.HasPending(buffer.EntityProfile, userID)
}

func (b *BufferBridge) TaskPending(_ context.Context, userID string) bool {
	return b.processor.HasPending(buffer.EntityTask, userID)
}

func (b *BufferBridge) submit(ctx context.Context, entity, operation, userID string, payload any, priority int) error {
	if b.processor == nil {
		return domain.ErrInvalidPayload
	}
	item, err := buffer.NewItem(entity, operation, userID, payload, priority)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
