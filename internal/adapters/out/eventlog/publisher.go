// Package eventlog is the event publisher used when no broker is configured: every
// status change becomes one structured log line.
package eventlog

import (
	"context"
	"log/slog"

	"deliveryhub/internal/core/domain/model/delivery"
)

type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger.With("component", "event_log")}
}

func (p *Publisher) Publish(ctx context.Context, events ...delivery.StatusChanged) error {
	for _, e := range events {
		p.logger.InfoContext(ctx, "Delivery status changed",
			"delivery_id", e.DeliveryID.String(),
			"order_id", e.OrderID,
			"restaurant_id", e.RestaurantID,
			"provider", e.Provider,
			"from", e.From,
			"to", e.To,
			"reason", e.Reason,
			"occurred_at", e.OccurredAt)
	}
	return nil
}
