package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/josh-kwaku/corebank-ledger/internal/logging"
)

const dialTimeout = 10 * time.Second

// RabbitPublisher publishes JSON events to a durable topic exchange. A lost
// connection or channel is redialled on the next Publish.
type RabbitPublisher struct {
	url      string
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	p := &RabbitPublisher{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, fmt.Errorf("NewRabbitPublisher: %w", err)
	}
	return p, nil
}

// connect dials the broker, opens a channel and declares the exchange.
// Callers hold mu.
func (p *RabbitPublisher) connect() error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.conn, p.channel = conn, ch
	return nil
}

func (p *RabbitPublisher) connected() bool {
	return p.channel != nil && !p.conn.IsClosed() && !p.channel.IsClosed()
}

// reset drops whatever is left of the current connection.
func (p *RabbitPublisher) reset() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn, p.channel = nil, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, events ...Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("Publish: marshal %s: %w", e.Kind, err)
		}
		err = p.publish(ctx, e.RoutingKey(), amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("Publish: %s: %w", e.RoutingKey(), err)
		}
	}
	return nil
}

// publish sends msg, redialling at most once when the connection is gone or
// the send fails on a broken channel.
func (p *RabbitPublisher) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if !p.connected() {
			p.reset()
			if err = p.connect(); err != nil {
				continue
			}
			logging.FromContext(ctx).Info("reconnected to event broker", "exchange", p.exchange)
		}
		err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
		if err == nil {
			return nil
		}
		p.reset()
	}
	return err
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	defer func() { p.conn, p.channel = nil, nil }()

	if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		p.conn.Close()
		return fmt.Errorf("Close: channel: %w", err)
	}
	if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("Close: connection: %w", err)
	}
	return nil
}
