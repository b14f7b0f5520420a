package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
)

type stubUsers struct {
	users map[string]*domain.User
	err   error
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (s *stubUsers) Create(context.Context, *domain.User) error        { return nil }
func (s *stubUsers) UpdateProfile(context.Context, *domain.User) error { return nil }

type stubTasks struct {
	byOwner map[string][]domain.Task
	err     error
	calls   int
}

func (s *stubTasks) ListByOwner(_ context.Context, userID string) ([]domain.Task, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byOwner[userID], nil
}

func (s *stubTasks) GetByID(context.Context, string, string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}
func (s *stubTasks) Create(_ context.Context, t *domain.Task) (*domain.Task, error) { return t, nil }
func (s *stubTasks) Update(context.Context, *domain.Task) error                   { return nil }
func (s *stubTasks) Delete(context.Context, string, string) error                 { return nil }

func fixture() (*stubUsers, *stubTasks) {
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	users := &stubUsers{users: map[string]*domain.User{"u1": {ID: "u1"}, "u2": {ID: "u2"}}}
	tasks := &stubTasks{byOwner: map[string][]domain.Task{
		"u1": {
			{UserID: "u1", Status: domain.StatusCompleted, UpdatedAt: now, DueDate: now.AddDate(0, 0, 1)},
			{UserID: "u1", Status: domain.StatusCompleted, UpdatedAt: now, DueDate: now.AddDate(0, 0, -1)},
			{UserID: "u1", Status: domain.StatusTodo, UpdatedAt: now, DueDate: now},
		},
	}}
	return users, tasks
}

func TestGetMetrics(t *testing.T) {
	users, tasks := fixture()
	uc := New(users, tasks, time.UTC, nil)

	m, err := uc.GetMetrics(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Metrics{
		TasksCompleted:    2,
		TotalTasksCreated: 3,
		CompletionRate:    67,
		StreakDays:        1,
		EfficiencyScore:   33,
	}, m)

	again, err := uc.GetMetrics(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, m, again)
}

func TestGetMetrics_NoTasks(t *testing.T) {
	users, tasks := fixture()
	m, err := New(users, tasks, nil, nil).GetMetrics(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, &domain.Metrics{}, m)
}

func TestGetMetrics_UnknownUser(t *testing.T) {
	users, tasks := fixture()
	_, err := New(users, tasks, time.UTC, nil).GetMetrics(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.EqualError(t, err, "User not found")
}

func TestGetMetrics_UserStoreFailure(t *testing.T) {
	users, tasks := fixture()
	users.err = errors.New("connection reset")

	_, err := New(users, tasks, time.UTC, nil).GetMetrics(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.Contains(t, err.Error(), "Failed to fetch metrics")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetMetrics_TaskStoreFailure(t *testing.T) {
	users, tasks := fixture()
	tasks.err = errors.New("timeout")

	_, err := New(users, tasks, time.UTC, nil).GetMetrics(context.Background(), "u1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.Equal(t, 1, tasks.calls)
}
