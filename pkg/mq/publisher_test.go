package mq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	closed     bool
	publishErr error
	published  []amqp.Publishing
	keys       []string
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.publishErr != nil {
		err := c.publishErr
		c.publishErr = nil
		c.closed = true
		return err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fakeBroker hands out a fresh channel per dial, or dialErr
type fakeBroker struct {
	dials    int
	dialErr  error
	channels []*fakeChannel
}

func (b *fakeBroker) dial(_, _ string) (io.Closer, channel, error) {
	b.dials++
	if b.dialErr != nil {
		return nil, nil, b.dialErr
	}
	ch := &fakeChannel{}
	b.channels = append(b.channels, ch)
	return nopCloser{}, ch, nil
}

func TestPublisher_PublishJSON(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newPublisher("amqp://test", "campus", broker.dial)
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}

	if err := p.PublishJSON(context.Background(), "lecture.scheduled", map[string]string{"lecture_id": "l-1"}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	ch := broker.channels[0]
	if len(ch.published) != 1 || ch.keys[0] != "lecture.scheduled" {
		t.Fatalf("expected one message on lecture.scheduled, got %v", ch.keys)
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent || msg.MessageId == "" {
		t.Errorf("unexpected publishing headers: %+v", msg)
	}
	var body map[string]string
	if err := json.Unmarshal(msg.Body, &body); err != nil || body["lecture_id"] != "l-1" {
		t.Errorf("unexpected body %s", msg.Body)
	}
}

func TestPublisher_ReconnectsAfterBrokerRestart(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newPublisher("amqp://test", "campus", broker.dial)
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	ctx := context.Background()

	// broker restart closes the channel underneath the publisher
	broker.channels[0].closed = true
	if err := p.PublishJSON(ctx, "k", 1); err != nil {
		t.Fatalf("publish after restart: %v", err)
	}
	if broker.dials != 2 || len(broker.channels[1].published) != 1 {
		t.Fatalf("expected a re-dial and delivery on the new channel, dials=%d", broker.dials)
	}

	// closed between the check and the publish
	broker.channels[1].publishErr = amqp.ErrClosed
	if err := p.PublishJSON(ctx, "k", 2); err != nil {
		t.Fatalf("publish after ErrClosed: %v", err)
	}
	if broker.dials != 3 || len(broker.channels[2].published) != 1 {
		t.Fatalf("expected retry on a fresh channel, dials=%d", broker.dials)
	}
}

func TestPublisher_BrokerStillDown(t *testing.T) {
	broker := &fakeBroker{}
	p, err := newPublisher("amqp://test", "campus", broker.dial)
	if err != nil {
		t.Fatalf("newPublisher: %v", err)
	}
	ctx := context.Background()

	down := errors.New("connection refused")
	broker.channels[0].closed = true
	broker.dialErr = down
	if err := p.PublishJSON(ctx, "k", 1); !errors.Is(err, down) {
		t.Fatalf("expected dial error, got %v", err)
	}

	broker.dialErr = nil
	if err := p.PublishJSON(ctx, "k", 2); err != nil {
		t.Fatalf("publish once the broker is back: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewPublisher_DialError(t *testing.T) {
	broker := &fakeBroker{dialErr: errors.New("no route")}
	if _, err := newPublisher("amqp://test", "campus", broker.dial); err == nil {
		t.Fatal("expected dial error")
	}
}
