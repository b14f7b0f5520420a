package profile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

const (
	// MaxAvatarSize is the largest accepted avatar upload.
	MaxAvatarSize = 5 << 20
)

var (
	ErrAvatarTooLarge = domain.ErrAvatarTooLarge
	ErrAvatarNotImage = domain.ErrAvatarNotImage
)

type UseCase struct {
	users    repository.UserRepository
	uploader usecase.AvatarUploader
	buffer   usecase.OperationBuffer
	logger   *zap.Logger
}

func New(users repository.UserRepository, uploader usecase.AvatarUploader, buffer usecase.OperationBuffer, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		uploader: uploader,
		buffer:   buffer,
		logger:   log,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile validates fields against the editable profile table, uploads the avatar
// when one is given, and stores the result.
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, fields map[string]string, avatar *usecase.Avatar) (*domain.User, error) {
	update, err := domain.ParseProfileUpdate(fields)
	if err != nil {
		return nil, err
	}
	if avatar != nil {
		if err := checkAvatar(avatar); err != nil {
			return nil, err
		}
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("user_id", userID))

	if avatar != nil {
		if uc.uploader == nil {
			return nil, domain.NewError(domain.ErrCodeInternal, "avatar uploads are not configured")
		}
		url, err := uc.uploader.UploadAvatar(ctx, userID, *avatar)
		if err != nil {
			log.Error("avatar upload failed", zap.Error(err))
			return nil, domain.WrapError(domain.ErrCodeInternal, "failed to upload avatar", err)
		}
		update.AvatarURL = url
	}

	if update.IsEmpty() {
		return user, nil
	}
	update.Apply(user)

	if uc.buffer != nil && uc.buffer.ProfilePending(ctx, userID) {
		if err := uc.buffer.BufferProfile(ctx, usecase.OperationUpdate, user); err != nil {
			return nil, err
		}
		log.Info("profile update queued behind pending writes")
		return user, nil
	}

	if err := uc.users.UpdateProfile(ctx, user); err != nil {
		if uc.buffer == nil || domain.IsClientError(err) {
			return nil, err
		}
		if bufErr := uc.buffer.BufferProfile(ctx, usecase.OperationUpdate, user); bufErr != nil {
			log.Error("failed to buffer profile update", zap.Error(bufErr))
			return nil, err
		}
		log.Warn("profile update buffered due to repository error", zap.Error(err))
	}
	return user, nil
}

func checkAvatar(avatar *usecase.Avatar) error {
	if avatar.Content == nil {
		return domain.ErrInvalidPayload
	}
	if avatar.Size > MaxAvatarSize {
		return ErrAvatarTooLarge
	}
	if !strings.HasPrefix(avatar.ContentType, "image/") {
		return ErrAvatarNotImage
	}
	return nil
}
