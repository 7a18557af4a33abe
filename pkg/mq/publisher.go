package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// channel the part of *amqp.Channel the publisher needs
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(url, exchange string) (io.Closer, channel, error)

// Publisher JSON publisher on a durable topic exchange.
// An amqp channel is not safe for concurrent publishes, hence the mutex.
// A channel closed by a broker restart is re-dialled on the next publish.
type Publisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	dial     dialFunc
	conn     io.Closer
	ch       channel
}

// NewPublisher dials the broker and declares the exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	return newPublisher(url, exchange, dial)
}

func newPublisher(url, exchange string, d dialFunc) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, dial: d}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func dial(url, exchange string) (io.Closer, channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

// connect replaces the current session; caller holds mu or owns p
func (p *Publisher) connect() error {
	p.release()
	conn, ch, err := p.dial(p.url, p.exchange)
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

// release closes the current session, if any; caller holds mu or owns p
func (p *Publisher) release() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}

// PublishJSON marshals v and publishes it under routing key key
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// closed between the check and the publish
		if err := p.connect(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	}
	return err
}

// Close releases channel and connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.release()
}
