package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Store is the subset of the buffer store the processor relies on.
type Store interface {
	Enqueue(item buffer.Item) error
	Peek(limit int) ([]buffer.Item, error)
	Remove(item buffer.Item) error
	Requeue(item buffer.Item) error
	Pending(entity, userID string) (bool, error)
	Size() (int, error)
	Cleanup(olderThan time.Time) (int, error)
}

// ProcessorConfig controls how frequently the buffer is drained and how long items live.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// BufferProcessor replays buffered writes against the primary repositories.
type BufferProcessor struct {
	store    Store
	monitor  ConnectionHealth
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewBufferProcessor(
	store Store,
	monitor ConnectionHealth,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:    store,
		monitor:  monitor,
		userRepo: userRepo,
		taskRepo: taskRepo,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})
	_, _ = bp.cron.AddFunc("@hourly", bp.cleanup)

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for running jobs to finish or ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays one batch of buffered items in order. Items rejected by the repositories
// as invalid or missing are dropped. Any other failure stops the batch and counts a retry
// against the item; after MaxRetries it is dropped.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.Peek(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := bp.processItem(ctx, item)
		if err == nil {
			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
			}
			continue
		}

		log := bp.logger.With(
			zap.String("item_id", item.ID),
			zap.String("entity", item.Entity),
			zap.String("operation", item.Operation),
			zap.Error(err))

		item.Retries++
		if domain.IsClientError(err) || item.Retries >= bp.cfg.MaxRetries {
			log.Warn("dropping buffer item", zap.Int("retries", item.Retries))
			_ = bp.store.Remove(item)
			continue
		}

		log.Error("failed to process buffer item, pausing drain")
		if err := bp.store.Requeue(item); err != nil {
			bp.logger.Error("failed to requeue buffer item", zap.Error(err))
		}
		// Later items may depend on this one.
		return nil
	}
	return nil
}

// BufferOperation tries the write once more when the stores look online and persists it
// for later replay otherwise. A write for an owner that still has queued items of the same
// entity is always queued behind them.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}

	if (bp.monitor == nil || bp.monitor.IsOnline()) && !bp.HasPending(item.Entity, item.UserID) {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		if domain.IsClientError(err) {
			return err
		}
		bp.logger.Warn("immediate processing failed, buffering", zap.Error(err))
	}
	return bp.store.Enqueue(item)
}

// HasPending reports whether userID has queued writes for entity. A store error counts as
// pending so callers fall back to queueing.
func (bp *BufferProcessor) HasPending(entity, userID string) bool {
	if bp == nil || bp.store == nil {
		return false
	}
	pending, err := bp.store.Pending(entity, userID)
	if err != nil {
		bp.logger.Warn("failed to inspect buffer", zap.Error(err))
		return true
	}
	return pending
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) cleanup() {
	removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
	if err != nil {
		bp.logger.Error("buffer cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		bp.logger.Warn("expired buffer items discarded", zap.Int("count", removed))
	}
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	switch item.Entity {
	case buffer.EntityProfile:
		var user domain.User
		if err := item.Decode(&user); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt profile item", err)
		}
		return bp.userRepo.UpdateProfile(ctx, &user)

	case buffer.EntityTask:
		var task domain.Task
		if err := item.Decode(&task); err != nil {
			return domain.WrapError(domain.ErrCodeInvalid, "corrupt task item", err)
		}
		switch item.Operation {
		case usecase.OperationCreate:
			_, err := bp.taskRepo.Create(ctx, &task)
			return err
		case usecase.OperationUpdate:
			return bp.taskRepo.Update(ctx, &task)
		case usecase.OperationDelete:
			return bp.taskRepo.Delete(ctx, task.UserID, task.ID)
		default:
			return domain.NewError(domain.ErrCodeInvalid, "unsupported operation "+item.Operation)
		}
	default:
		return domain.NewError(domain.ErrCodeInvalid, "unsupported entity "+item.Entity)
	}
}
