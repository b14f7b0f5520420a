package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/pkg/logger"
	"github.com/fastygo/taskboard/usecase"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends task events to a durable topic exchange, routed by event type.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	logger   *zap.Logger
	mu       sync.Mutex
}

// Dial connects to the broker and declares the exchange.
func Dial(url, exchange string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("rabbitmq publisher connected", zap.String("exchange", exchange))
	return &Publisher{conn: conn, channel: ch, exchange: exchange, logger: log}, nil
}

func (p *Publisher) PublishTaskEvent(ctx context.Context, event domain.TaskEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	logger.WithRequestID(ctx, p.logger).Debug("task event published",
		zap.String("type", event.Type),
		zap.String("task_id", event.TaskID))
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing channel", zap.Error(err))
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Noop drops events. It is used when no broker is configured.
type Noop struct {
	logger *zap.Logger
}

func NewNoop(log *zap.Logger) *Noop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Noop{logger: log}
}

func (n *Noop) PublishTaskEvent(_ context.Context, event domain.TaskEvent) error {
	n.logger.Debug("task event dropped", zap.String("type", event.Type), zap.String("task_id", event.TaskID))
	return nil
}

func (n *Noop) Close() error { return nil }

var (
	_ usecase.EventPublisher = (*Publisher)(nil)
	_ usecase.EventPublisher = (*Noop)(nil)
)
