// Package events publishes interview turn events to RabbitMQ so downstream
// consumers can follow progress without polling the database.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys
const (
	TypeInterviewStarted = "interview.started"
	TypeQuestionAnswered = "interview.answered"
	TypeQuestionSkipped  = "interview.skipped"
	TypeInterviewReset   = "interview.reset"
	TypeProfileBuilt     = "profile.built"
)

const DefaultExchange = "interviewcoach.events"

// Event is one state change of an interview session
type Event struct {
	Type            string    `json:"type"`
	SessionID       string    `json:"session_id"`
	UserID          *int64    `json:"user_id,omitempty"`
	UserVacancyID   *int64    `json:"user_vacancy_id,omitempty"`
	QuestionOrder   int       `json:"question_order,omitempty"`
	FocusSkill      string    `json:"focus_skill,omitempty"`
	Correctness     *int      `json:"correctness,omitempty"`
	RoleRelevance   *int      `json:"role_relevance,omitempty"`
	FallacyDetected bool      `json:"fallacy_detected,omitempty"`
	Ended           bool      `json:"ended,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// PublishError wraps a failed delivery
type PublishError struct {
	Exchange   string
	RoutingKey string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s to %s: %v", e.RoutingKey, e.Exchange, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed
func (e *PublishError) Retryable() bool {
	return true
}

// Config for the AMQP publisher
type Config struct {
	URL      string
	Exchange string
	Logger   *slog.Logger
}

// channel is the part of *amqp.Channel the publisher uses
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url, exchange string) (channel, io.Closer, error)

// AMQPPublisher publishes JSON events to a durable topic exchange with
// persistent delivery. The connection is opened lazily and reopened once
// after a failed publish.
type AMQPPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	logger   *slog.Logger
	dial     dialFunc
	now      func() time.Time

	ch   channel
	conn io.Closer
}

// New returns a Noop publisher when cfg.URL is empty and an AMQP publisher
// otherwise
func New(cfg Config) Publisher {
	if cfg.URL == "" {
		return Noop{}
	}
	return NewAMQPPublisher(cfg)
}

// NewAMQPPublisher creates a publisher without connecting
func NewAMQPPublisher(cfg Config) *AMQPPublisher {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AMQPPublisher{
		url:      cfg.URL,
		exchange: cfg.Exchange,
		logger:   cfg.Logger,
		dial:     dialAMQP,
		now:      time.Now,
	}
}

func dialAMQP(url, exchange string) (channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}

// Publish sends ev with its Type as the routing key
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.Type == "" {
		return errors.New("event type is required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publishLocked(ctx, ev.Type, msg)
	if err != nil {
		// drop the broken connection and try once more on a fresh one
		p.logger.WarnContext(ctx, "event publish failed, reconnecting", "routing_key", ev.Type, "error", err)
		p.closeLocked()
		err = p.publishLocked(ctx, ev.Type, msg)
	}
	if err != nil {
		p.closeLocked()
		return &PublishError{Exchange: p.exchange, RoutingKey: ev.Type, Err: err}
	}

	p.logger.DebugContext(ctx, "event published", "routing_key", ev.Type, "session_id", ev.SessionID)
	return nil
}

func (p *AMQPPublisher) publishLocked(ctx context.Context, key string, msg amqp.Publishing) error {
	if p.ch == nil {
		ch, conn, err := p.dial(p.url, p.exchange)
		if err != nil {
			return err
		}
		p.ch, p.conn = ch, conn
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

func (p *AMQPPublisher) closeLocked() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

// Close releases the channel and connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}
