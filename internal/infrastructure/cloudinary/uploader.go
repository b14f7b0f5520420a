package cloudinary

import (
	"context"
	"errors"
	"fmt"

	cldsdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
)

const avatarTransformation = "c_fill,h_300,w_300"

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("image host unavailable")

// uploadAPI is satisfied by *uploader.API.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Uploader stores avatars on Cloudinary. Consecutive failures open a breaker so a dead
// image host fails profile updates fast instead of holding requests.
type Uploader struct {
	api     uploadAPI
	folder  string
	breaker *gobreaker.CircuitBreaker[any]
	logger  *zap.Logger
}

func New(cfg config.CloudinaryConfig, breaker config.BreakerConfig, log *zap.Logger) (*Uploader, error) {
	cld, err := cldsdk.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return newUploader(&cld.Upload, cfg.Folder, breaker, log), nil
}

func newUploader(api uploadAPI, folder string, cfg config.BreakerConfig, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	u := &Uploader{api: api, folder: folder, logger: log}
	u.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "cloudinary",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return u
}

// UploadAvatar pushes the image and returns its secure URL.
func (u *Uploader) UploadAvatar(ctx context.Context, userID string, avatar usecase.Avatar) (string, error) {
	result, err := u.breaker.Execute(func() (any, error) {
		resp, err := u.api.Upload(ctx, avatar.Content, uploader.UploadParams{
			Folder:         u.folder,
			Transformation: avatarTransformation,
			ResourceType:   "image",
		})
		if err != nil {
			return nil, err
		}
		if resp.Error.Message != "" {
			return nil, errors.New(resp.Error.Message)
		}
		return resp.SecureURL, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrUnavailable
		}
		return "", err
	}

	url, _ := result.(string)
	logger.WithRequestID(ctx, u.logger).Info("avatar uploaded",
		zap.String("user_id", userID),
		zap.String("filename", avatar.Filename),
		zap.Int64("size", avatar.Size))
	return url, nil
}

var _ usecase.AvatarUploader = (*Uploader)(nil)
