package delivery

import (
	"time"

	"deliveryhub/internal/core/domain/model/kernel"
)

// StatusChanged is recorded by the aggregate for every applied status change.
// It carries what downstream notifiers (customer tracking, chatbot event webhook)
// need to build their own payloads.
type StatusChanged struct {
	DeliveryID   kernel.UUID
	OrderID      string
	RestaurantID string
	Provider     Provider
	From         Status
	To           Status
	Reason       string
	TrackingURL  string
	OccurredAt   time.Time
}
