package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/repository"
)

type UseCase struct {
	users    repository.UserRepository
	tasks    repository.TaskRepository
	location *time.Location
	logger   *zap.Logger
}

// New builds the metrics use case. Calendar days for streaks are computed in loc.
func New(users repository.UserRepository, tasks repository.TaskRepository, loc *time.Location, log *zap.Logger) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &UseCase{
		users:    users,
		tasks:    tasks,
		location: loc,
		logger:   log,
	}
}

// GetMetrics loads the user and their tasks concurrently and summarizes them.
// A missing user yields ErrUserNotFound; any other fetch error is reported as INTERNAL.
func (uc *UseCase) GetMetrics(ctx context.Context, userID string) (*domain.Metrics, error) {
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("user_id", userID))

	var tasks []domain.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := uc.users.GetByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		list, err := uc.tasks.ListByOwner(gctx, userID)
		if err != nil {
			return err
		}
		tasks = list
		return nil
	})

	if err := g.Wait(); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUserNotFound
		}
		log.Error("metrics fetch failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "Failed to fetch metrics", err)
	}

	m := domain.ComputeMetrics(tasks, uc.location)
	log.Debug("metrics calculated",
		zap.Int("total", m.TotalTasksCreated),
		zap.Int("completed", m.TasksCompleted),
	)
	return &m, nil
}
