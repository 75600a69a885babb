// Package rabbitmq publishes delivery status changes to a topic exchange so downstream
// notifiers (customer tracking, chatbot event webhook) can subscribe by status.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange   = "delivery.events"
	routingKeyPrefix  = "delivery.status."
	confirmTimeout    = 5 * time.Second
	messageType       = "delivery.status_changed"
	messageSourceName = "deliveryhub"
)

type Config struct {
	URL      string
	Exchange string
}

// StatusChangedMessage is the JSON body of every published message.
type StatusChangedMessage struct {
	DeliveryID   string    `json:"delivery_id"`
	OrderID      string    `json:"order_id"`
	RestaurantID string    `json:"restaurant_id"`
	Provider     string    `json:"provider,omitempty"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Reason       string    `json:"reason,omitempty"`
	TrackingURL  string    `json:"tracking_url,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RoutingKey lets consumers bind to one status ("delivery.status.delivered") or all
// of them ("delivery.status.*").
func RoutingKey(status delivery.Status) string {
	return routingKeyPrefix + status.String()
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends one persistent message per status change and waits for the broker's
// confirm before sending the next.
type Publisher struct {
	conn *amqp.Connection
	ch   channel
	confirms <-chan amqp.Confirmation
	exchange string
	logger   *slog.Logger

	mu sync.Mutex
}

// Dial connects, declares the durable topic exchange and enables publisher confirms.
func Dial(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err = ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare %s: %w", cfg.Exchange, err)
	}
	if err = ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	p := newPublisher(ch, confirms, cfg.Exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, confirms <-chan amqp.Confirmation, exchange string, logger *slog.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		confirms: confirms,
		exchange: exchange,
		logger:   logger.With("component", "rabbitmq_publisher", "exchange", exchange),
	}
}

// Publish stops at the first event the broker does not confirm.
func (p *Publisher) Publish(ctx context.Context, events ...delivery.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range events {
		if err := p.publishOne(ctx, e); err != nil {
			return fmt.Errorf("publish %s for delivery %s: %w", e.To, e.DeliveryID, err)
		}
		p.logger.DebugContext(ctx, "Status change published",
			"delivery_id", e.DeliveryID.String(),
			"routing_key", RoutingKey(e.To))
	}
	return nil
}

func (p *Publisher) publishOne(ctx context.Context, e delivery.StatusChanged) error {
	body, err := json.Marshal(StatusChangedMessage{
		DeliveryID:   e.DeliveryID.String(),
		OrderID:      e.OrderID,
		RestaurantID: e.RestaurantID,
		Provider:     string(e.Provider),
		From:         e.From.String(),
		To:           e.To.String(),
		Reason:       e.Reason,
		TrackingURL:  e.TrackingURL,
		OccurredAt:   e.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(e.To), false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		MessageId:     uuid.NewString(),
		CorrelationId: e.OrderID,
		Type:          messageType,
		AppId:         messageSourceName,
		Timestamp:     e.OccurredAt.UTC(),
		Body:          body,
	})
	if err != nil {
		return err
	}

	timer := time.NewTimer(confirmTimeout)
	defer timer.Stop()

	select {
	case confirm, ok := <-p.confirms:
		if !ok {
			return errors.New("confirm channel closed")
		}
		if !confirm.Ack {
			return errors.New("broker nacked message")
		}
		return nil
	case <-timer.C:
		return errors.New("timed out waiting for broker confirm")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the connection and with it the channel.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
