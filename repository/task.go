package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// TaskRepository persists tasks. Every lookup and mutation is scoped to the owning user.
type TaskRepository interface {
	GetByID(ctx context.Context, userID, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, userID, id string) error
}
