package ports

import (
	"context"

	"deliveryhub/internal/core/domain/model/delivery"
)

// EventPublisher hands status changes to downstream consumers (customer tracking,
// chatbot event webhook).
type EventPublisher interface {
	Publish(ctx context.Context, events ...delivery.StatusChanged) error
}
