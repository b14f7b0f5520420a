package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

var errStaleFill = errors.New("task cache: list changed while loading")

// TaskCache serves per-owner task lists from Redis in front of another TaskRepository.
// Writes go to the backing repository first and then drop the owner's cached list.
type TaskCache struct {
	base   repository.TaskRepository
	client *redislib.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTaskCache wraps base. A nil client or non-positive ttl disables caching.
func NewTaskCache(base repository.TaskRepository, client *redislib.Client, ttl time.Duration, logger *zap.Logger) *TaskCache {
	if base == nil {
		panic("redis.NewTaskCache: base repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TaskCache{base: base, client: client, ttl: ttl, logger: logger}
}

func (c *TaskCache) GetByID(ctx context.Context, userID, id string) (*domain.Task, error) {
	return c.base.GetByID(ctx, userID, id)
}

func (c *TaskCache) ListByOwner(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := c.load(ctx, userID); ok {
		return tasks, nil
	}

	// Snapshot the version before reading so a write that lands during the read
	// invalidates this fill.
	version, versionOK := c.version(ctx, userID)
	tasks, err := c.base.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	if versionOK {
		c.store(ctx, userID, version, tasks)
	}
	return tasks, nil
}

func (c *TaskCache) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	created, err := c.base.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	c.Evict(ctx, created.UserID)
	return created, nil
}

func (c *TaskCache) Update(ctx context.Context, task *domain.Task) error {
	if err := c.base.Update(ctx, task); err != nil {
		return err
	}
	c.Evict(ctx, task.UserID)
	return nil
}

func (c *TaskCache) Delete(ctx context.Context, userID, id string) error {
	if err := c.base.Delete(ctx, userID, id); err != nil {
		return err
	}
	c.Evict(ctx, userID)
	return nil
}

// Evict drops the cached list for userID and bumps its version so fills that started
// before the write are discarded.
func (c *TaskCache) Evict(ctx context.Context, userID string) {
	if c.client == nil {
		return
	}
	versionKey := tasksVersionKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, tasksCacheKey(userID))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, c.versionTTL())
		return nil
	})
	if err != nil {
		c.logger.Warn("task cache eviction failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (c *TaskCache) load(ctx context.Context, userID string) ([]domain.Task, bool) {
	if c.client == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.client.Get(ctx, tasksCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redislib.Nil) {
			c.logger.Debug("task cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.client.Del(ctx, tasksCacheKey(userID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *TaskCache) version(ctx context.Context, userID string) (int64, bool) {
	if c.client == nil || c.ttl == 0 {
		return 0, false
	}
	version, err := readVersion(ctx, c.client, tasksVersionKey(userID))
	if err != nil {
		return 0, false
	}
	return version, true
}

// store fills the cache only if no eviction happened since version was read.
func (c *TaskCache) store(ctx context.Context, userID string, version int64, tasks []domain.Task) {
	if c.client == nil || c.ttl == 0 {
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	versionKey := tasksVersionKey(userID)
	err = c.client.Watch(ctx, func(tx *redislib.Tx) error {
		current, err := readVersion(ctx, tx, versionKey)
		if err != nil {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, tasksCacheKey(userID), data, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if err != nil && !errors.Is(err, errStaleFill) && !errors.Is(err, redislib.TxFailedErr) {
		c.logger.Debug("task cache fill failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// versionTTL outlives any cached list so a fill cannot observe an expired version.
func (c *TaskCache) versionTTL() time.Duration {
	return c.ttl + time.Minute
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redislib.StringCmd
}

func readVersion(ctx context.Context, cmd stringGetter, key string) (int64, error) {
	version, err := cmd.Get(ctx, key).Int64()
	if errors.Is(err, redislib.Nil) {
		return 0, nil
	}
	return version, err
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

func tasksVersionKey(userID string) string {
	return "tasks:" + userID + ":version"
}

var _ repository.TaskRepository = (*TaskCache)(nil)
