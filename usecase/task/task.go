package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

type UseCase struct {
	tasks  repository.TaskRepository
	buffer usecase.OperationBuffer
	events usecase.EventPublisher
	now    func() time.Time
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, buffer usecase.OperationBuffer, events usecase.EventPublisher, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		buffer: buffer,
		events: events,
		now:    time.Now,
		logger: log,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	return uc.tasks.ListByOwner(ctx, userID)
}

func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, userID, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.ApplyDefaults()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	task.ID = uuid.NewString()
	task.CreatedAt = now
	task.UpdatedAt = now

	created := task
	if err := uc.write(ctx, usecase.OperationCreate, task, func() error {
		stored, err := uc.tasks.Create(ctx, task)
		if err == nil {
			created = stored
		}
		return err
	}); err != nil {
		return nil, err
	}

	uc.publish(ctx, domain.EventTaskCreated, created)
	return created, nil
}

// UpdateTask applies patch to the caller's task. Moving a task into completed also emits
// a task.completed event.
func (uc *UseCase) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	current, err := uc.tasks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := current.IsCompleted()

	patch.Apply(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}
	current.UpdatedAt = uc.now()

	if err := uc.write(ctx, usecase.OperationUpdate, current, func() error {
		return uc.tasks.Update(ctx, current)
	}); err != nil {
		return nil, err
	}

	uc.publish(ctx, domain.EventTaskUpdated, current)
	if !wasCompleted && current.IsCompleted() {
		uc.publish(ctx, domain.EventTaskCompleted, current)
	}
	return current, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	task := &domain.Task{ID: id, UserID: userID}
	if err := uc.write(ctx, usecase.OperationDelete, task, func() error {
		return uc.tasks.Delete(ctx, userID, id)
	}); err != nil {
		return err
	}
	uc.publish(ctx, domain.EventTaskDeleted, task)
	return nil
}

// write runs direct against the repository unless the owner already has buffered task
// writes, in which case the operation is queued behind them.
func (uc *UseCase) write(ctx context.Context, operation string, task *domain.Task, direct func() error) error {
	if uc.buffer != nil && uc.buffer.TaskPending(ctx, task.UserID) {
		if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
			return err
		}
		logger.WithRequestID(ctx, uc.logger).Info("task operation queued behind pending writes",
			zap.String("operation", operation), zap.String("task_id", task.ID))
		return nil
	}

	err := direct()
	if err != nil && uc.shouldBuffer(ctx, operation, task, err) {
		return nil
	}
	return err
}

// shouldBuffer parks the operation in the write buffer when the failure is not a domain
// error, i.e. the store is unavailable rather than the request being wrong.
func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil || domain.IsClientError(cause) {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		log.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	log.Warn("task operation buffered", zap.String("operation", operation), zap.Error(cause))
	return true
}

func (uc *UseCase) publish(ctx context.Context, eventType string, task *domain.Task) {
	if uc.events == nil {
		return
	}
	event := domain.TaskEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Status:     task.Status,
		OccurredAt: uc.now(),
	}
	if err := uc.events.PublishTaskEvent(ctx, event); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("task event not published",
			zap.String("type", eventType),
			zap.String("task_id", task.ID),
			zap.Error(err))
	}
}
