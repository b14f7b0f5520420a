package usecase

import (
	"context"
	"io"

	"github.com/fastygo/taskboard/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
// While an owner has pending writes, new writes for that owner must be buffered too so
// replay keeps them in order.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, user *domain.User) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
	ProfilePending(ctx context.Context, userID string) bool
	TaskPending(ctx context.Context, userID string) bool
}

// Avatar is an uploaded profile image.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// AvatarUploader stores an avatar with the image host and returns its public HTTPS URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID string, avatar Avatar) (string, error)
}

// EventPublisher delivers task events to interested consumers.
type EventPublisher interface {
	PublishTaskEvent(ctx context.Context, event domain.TaskEvent) error
}
