// Package ports defines the contracts between the delivery core and its adapters:
// persistence, provider integrations and event publishing.
package ports

import (
	"context"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
)

// DeliveryRepository defines the persistence contract for delivery aggregates.
//
// Single-delivery getters lock the row for the rest of the enclosing transaction, so two
// writers touching the same delivery are serialized even across processes.
type DeliveryRepository interface {
	// Add persists a new delivery. A second delivery for the same order fails with
	// errs.ObjectAlreadyExistsError.
	Add(ctx context.Context, aggregate *delivery.Delivery) error

	// Update persists changes to an existing delivery.
	Update(ctx context.Context, aggregate *delivery.Delivery) error

	// Get retrieves a delivery by id; errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error)

	// GetByOrderID retrieves the delivery of an order; errs.ObjectNotFoundError when absent.
	GetByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error)

	// GetByProviderIdentifier resolves a provider's own key back to the delivery.
	GetByProviderIdentifier(
		ctx context.Context,
		provider delivery.Provider,
		providerIdentifier string,
	) (*delivery.Delivery, error)

	// GetAwaitingDispatch returns up to limit pending deliveries that have a provider,
	// no confirmed dispatch and no failure recorded, oldest first.
	GetAwaitingDispatch(ctx context.Context, limit int) ([]*delivery.Delivery, error)

	// GetActiveByProvider returns dispatched, non-terminal deliveries of a provider.
	GetActiveByProvider(ctx context.Context, provider delivery.Provider) ([]*delivery.Delivery, error)
}
