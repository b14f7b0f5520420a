package task

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

var errStore = errors.New("store offline")

type memTasks struct {
	tasks map[string]domain.Task
	fail  error
}

func newMemTasks() *memTasks { return &memTasks{tasks: map[string]domain.Task{}} }

func (m *memTasks) GetByID(_ context.Context, userID, id string) (*domain.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (m *memTasks) ListByOwner(_ context.Context, userID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memTasks) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.tasks[t.ID] = *t
	return t, nil
}

func (m *memTasks) Update(_ context.Context, t *domain.Task) error {
	if m.fail != nil {
		return m.fail
	}
	m.tasks[t.ID] = *t
	return nil
}

func (m *memTasks) Delete(_ context.Context, userID, id string) error {
	if m.fail != nil {
		return m.fail
	}
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

type recordedOp struct {
	operation string
	task      domain.Task
}

type fakeBuffer struct {
	ops     []recordedOp
	err     error
	pending bool
}

func (b *fakeBuffer) BufferProfile(context.Context, string, *domain.User) error { return b.err }

func (b *fakeBuffer) ProfilePending(context.Context, string) bool { return false }

func (b *fakeBuffer) TaskPending(context.Context, string) bool { return b.pending }

func (b *fakeBuffer) BufferTask(_ context.Context, op string, t *domain.Task) error {
	if b.err != nil {
		return b.err
	}
	b.ops = append(b.ops, recordedOp{operation: op, task: *t})
	return nil
}

type fakeEvents struct {
	events []domain.TaskEvent
	err    error
}

func (f *fakeEvents) PublishTaskEvent(_ context.Context, e domain.TaskEvent) error {
	f.events = append(f.events, e)
	return f.err
}

func (f *fakeEvents) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

var fixedNow = time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

func newUseCase(repo *memTasks, buf *fakeBuffer, events *fakeEvents) *UseCase {
	uc := New(repo, buf, events, nil)
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func newTask(userID string) *domain.Task {
	return &domain.Task{UserID: userID, Title: "Pay rent", DueDate: fixedNow.Add(48 * time.Hour)}
}

func TestCreateTask(t *testing.T) {
	repo, events := newMemTasks(), &fakeEvents{}
	uc := newUseCase(repo, &fakeBuffer{}, events)

	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusTodo, created.Status)
	assert.Equal(t, domain.CategoryOther, created.Category)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Equal(t, fixedNow, created.UpdatedAt)
	assert.Contains(t, repo.tasks, created.ID)
	assert.Equal(t, []string{domain.EventTaskCreated}, events.types())
}

func TestCreateTask_ValidationFailure(t *testing.T) {
	repo, events := newMemTasks(), &fakeEvents{}
	uc := newUseCase(repo, &fakeBuffer{}, events)

	_, err := uc.CreateTask(context.Background(), &domain.Task{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, domain.FieldErrors(err), "title")
	assert.Contains(t, domain.FieldErrors(err), "dueDate")
	assert.Empty(t, repo.tasks)
	assert.Empty(t, events.events)
}

func TestCreateTask_BuffersWhenStoreFails(t *testing.T) {
	repo, buf, events := newMemTasks(), &fakeBuffer{}, &fakeEvents{}
	repo.fail = errStore
	uc := newUseCase(repo, buf, events)

	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)
	require.Len(t, buf.ops, 1)
	assert.Equal(t, usecase.OperationCreate, buf.ops[0].operation)
	assert.Equal(t, created.ID, buf.ops[0].task.ID)
	assert.Equal(t, []string{domain.EventTaskCreated}, events.types())
}

func TestCreateTask_ReturnsErrorWhenBufferFails(t *testing.T) {
	repo := newMemTasks()
	repo.fail = errStore
	uc := newUseCase(repo, &fakeBuffer{err: errors.New("disk full")}, &fakeEvents{})

	_, err := uc.CreateTask(context.Background(), newTask("u1"))
	assert.ErrorIs(t, err, errStore)
}

func TestCreateTask_EventFailureDoesNotFail(t *testing.T) {
	uc := newUseCase(newMemTasks(), &fakeBuffer{}, &fakeEvents{err: errors.New("broker down")})
	_, err := uc.CreateTask(context.Background(), newTask("u1"))
	assert.NoError(t, err)
}

func TestUpdateTask_CompletionEmitsEvent(t *testing.T) {
	repo, events := newMemTasks(), &fakeEvents{}
	uc := newUseCase(repo, &fakeBuffer{}, events)
	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)

	later := fixedNow.Add(time.Hour)
	uc.now = func() time.Time { return later }
	status := domain.StatusCompleted
	updated, err := uc.UpdateTask(context.Background(), "u1", created.ID, domain.TaskPatch{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, fixedNow, updated.CreatedAt)
	assert.Equal(t, []string{domain.EventTaskCreated, domain.EventTaskUpdated, domain.EventTaskCompleted}, events.types())

	_, err = uc.UpdateTask(context.Background(), "u1", created.ID, domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Len(t, events.events, 4, "already completed tasks do not emit task.completed again")
}

func TestUpdateTask_OwnerScoped(t *testing.T) {
	repo := newMemTasks()
	uc := newUseCase(repo, &fakeBuffer{}, &fakeEvents{})
	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)

	title := "hijack"
	_, err = uc.UpdateTask(context.Background(), "u2", created.ID, domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Equal(t, "Pay rent", repo.tasks[created.ID].Title)
}

func TestUpdateTask_RejectsInvalidPatch(t *testing.T) {
	repo := newMemTasks()
	uc := newUseCase(repo, &fakeBuffer{}, &fakeEvents{})
	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)

	status := domain.TaskStatus("done")
	_, err = uc.UpdateTask(context.Background(), "u1", created.ID, domain.TaskPatch{Status: &status})
	assert.Contains(t, domain.FieldErrors(err), "status")
	assert.Equal(t, domain.StatusTodo, repo.tasks[created.ID].Status)
}

func TestDeleteTask(t *testing.T) {
	repo, events := newMemTasks(), &fakeEvents{}
	uc := newUseCase(repo, &fakeBuffer{}, events)
	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteTask(context.Background(), "u2", created.ID), domain.ErrTaskNotFound)
	require.NoError(t, uc.DeleteTask(context.Background(), "u1", created.ID))
	assert.Empty(t, repo.tasks)
	assert.Equal(t, domain.EventTaskDeleted, events.events[len(events.events)-1].Type)

	assert.ErrorIs(t, uc.DeleteTask(context.Background(), "u1", created.ID), domain.ErrTaskNotFound)
}

func TestListAndGetTasks(t *testing.T) {
	repo := newMemTasks()
	uc := newUseCase(repo, &fakeBuffer{}, &fakeEvents{})
	a, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)
	_, err = uc.CreateTask(context.Background(), newTask("u2"))
	require.NoError(t, err)

	list, err := uc.ListTasks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	got, err := uc.GetTask(context.Background(), "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", got.Title)

	_, err = uc.GetTask(context.Background(), "u2", a.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdateTask_QueuesBehindPendingWrites(t *testing.T) {
	repo, buf, events := newMemTasks(), &fakeBuffer{}, &fakeEvents{}
	uc := newUseCase(repo, buf, events)
	created, err := uc.CreateTask(context.Background(), newTask("u1"))
	require.NoError(t, err)

	buf.pending = true
	status := domain.StatusInProgress
	updated, err := uc.UpdateTask(context.Background(), "u1", created.ID, domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)

	assert.Equal(t, domain.StatusTodo, repo.tasks[created.ID].Status, "repository is not written ahead of the queue")
	require.Len(t, buf.ops, 1)
	assert.Equal(t, usecase.OperationUpdate, buf.ops[0].operation)
	assert.Equal(t, domain.StatusInProgress, buf.ops[0].task.Status)
	assert.Equal(t, domain.EventTaskUpdated, events.events[len(events.events)-1].Type)

	require.NoError(t, uc.DeleteTask(context.Background(), "u1", created.ID))
	assert.Contains(t, repo.tasks, created.ID)
	require.Len(t, buf.ops, 2)
	assert.Equal(t, usecase.OperationDelete, buf.ops[1].operation)
}
