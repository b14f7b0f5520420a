package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_RoutesByEventType(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{channel: ch, exchange: "taskboard.events", logger: zap.NewNop()}

	event := domain.TaskEvent{
		ID:         "e1",
		Type:       domain.EventTaskCompleted,
		TaskID:     "t1",
		UserID:     "u1",
		Status:     domain.StatusCompleted,
		OccurredAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishTaskEvent(context.Background(), event))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "taskboard.events", sent.exchange)
	assert.Equal(t, "task.completed", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.Equal(t, "e1", sent.msg.MessageId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, "t1", body["taskId"])
	assert.Equal(t, "completed", body["status"])

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_WrapsChannelErrors(t *testing.T) {
	boom := errors.New("channel closed")
	p := &Publisher{channel: &fakeChannel{err: boom}, exchange: "x", logger: zap.NewNop()}

	err := p.PublishTaskEvent(context.Background(), domain.TaskEvent{Type: domain.EventTaskCreated})
	assert.ErrorIs(t, err, boom)
}

func TestNoop(t *testing.T) {
	n := NewNoop(nil)
	assert.NoError(t, n.PublishTaskEvent(context.Background(), domain.TaskEvent{Type: domain.EventTaskDeleted}))
	assert.NoError(t, n.Close())
}
