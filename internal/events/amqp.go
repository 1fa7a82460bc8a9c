package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// session is one open connection and channel to the broker.
type session interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type amqpSession struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func (s *amqpSession) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return s.ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

func (s *amqpSession) IsClosed() bool {
	return s.conn.IsClosed() || s.ch.IsClosed()
}

func (s *amqpSession) Close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}

// AMQPPublisher publishes JSON events to a topic exchange. A session closed by
// the broker is reopened on the next publish.
type AMQPPublisher struct {
	mu       sync.Mutex
	open     func() (session, error)
	sess     session
	exchange string
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	return newPublisher(exchange, func() (session, error) {
		return dial(url, exchange)
	})
}

func newPublisher(exchange string, open func() (session, error)) (*AMQPPublisher, error) {
	sess, err := open()
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{open: open, sess: sess, exchange: exchange}, nil
}

func dial(url, exchange string) (session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &amqpSession{conn: conn, ch: ch}, nil
}

// PublishJSON marshals v and publishes it with the given routing key.
func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", key, err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sess, err := p.session()
	if err != nil {
		return err
	}
	err = sess.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	// Closed between the check and the publish; retry once on a fresh session.
	p.reset()
	if sess, err = p.session(); err != nil {
		return err
	}
	return sess.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

// session returns the open session, reopening it if the broker closed it.
// Callers hold p.mu.
func (p *AMQPPublisher) session() (session, error) {
	if p.sess != nil && !p.sess.IsClosed() {
		return p.sess, nil
	}
	p.reset()
	sess, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("reopen rabbitmq session: %w", err)
	}
	p.sess = sess
	return sess, nil
}

func (p *AMQPPublisher) reset() {
	if p.sess != nil {
		_ = p.sess.Close()
		p.sess = nil
	}
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	err := p.sess.Close()
	p.sess = nil
	return err
}
