package ports

import (
	"context"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
)

// ProviderAdapter is the capability set every delivery provider implements.
type ProviderAdapter interface {
	Provider() delivery.Provider

	// CheckAvailability reports whether the provider can take a delivery between the
	// given stops right now (service area, opening hours).
	CheckAvailability(ctx context.Context, req AvailabilityRequest) (Availability, error)

	// Quote returns the fee and estimated dropoff time shown to the customer.
	Quote(ctx context.Context, req AvailabilityRequest) (Quote, error)

	// Dispatch books the delivery with the provider. Failures are errs.DispatchError.
	Dispatch(ctx context.Context, d *delivery.Delivery) (delivery.DispatchConfirmation, error)

	// Cancel cancels a booked delivery. Cancelling an already cancelled delivery is not
	// an error. Failures are errs.CancelError.
	Cancel(ctx context.Context, providerIdentifier string) error

	// NormalizeWebhook translates a webhook body into a ProviderEvent. Unknown event
	// types fail with errs.UnrecognizedPayloadError.
	NormalizeWebhook(payload []byte) (ProviderEvent, error)
}

// StatusPoller is implemented by providers whose status can be pulled, used to recover
// from missed webhooks.
type StatusPoller interface {
	Poll(ctx context.Context, providerIdentifier string) (ProviderEvent, error)
}

// ImplicitStatusDeclarer is implemented by providers that never report some forward
// statuses. A jump over only those statuses counts as a single transition step.
type ImplicitStatusDeclarer interface {
	ImplicitStatuses() []delivery.Status
}

// ProviderRegistry looks adapters up by provider.
type ProviderRegistry interface {
	// Adapter returns errs.ObjectNotFoundError for providers without an adapter.
	Adapter(provider delivery.Provider) (ProviderAdapter, error)

	// Poller returns the status poller of a provider, if it has one.
	Poller(provider delivery.Provider) (StatusPoller, bool)

	Providers() []delivery.Provider
}

type AvailabilityRequest struct {
	RestaurantID   string
	PickUpAddress  string
	DropOffAddress string
	ReadyTime      *time.Time
}

// NewAvailabilityRequest builds a request from the stops of a delivery.
func NewAvailabilityRequest(restaurantID string, pickUp, dropOff delivery.Stop) AvailabilityRequest {
	return AvailabilityRequest{
		RestaurantID:   restaurantID,
		PickUpAddress:  pickUp.Address(),
		DropOffAddress: dropOff.Address(),
		ReadyTime:      pickUp.ReadyTime(),
	}
}

type Availability struct {
	Available bool
	// Reason explains a negative answer, e.g. "outside service area".
	Reason string
}

type Quote struct {
	Fee        kernel.Money
	DropoffEta *time.Time
	// ExternalID is the provider's quote reference, when it issues one.
	ExternalID string
}

// ProviderEvent is a provider callback or poll result in domain terms.
//
// Status is empty for events that only carry courier details or a location.
type ProviderEvent struct {
	Provider           delivery.Provider
	ProviderIdentifier string
	// EventType is the provider's own name for the event, kept for logging.
	EventType   string
	Status      delivery.Status
	Courier     *delivery.Courier
	Location    *kernel.GeoPoint
	TrackingURL string
	Reason      string
	OccurredAt  time.Time
}

func (e ProviderEvent) HasStatus() bool {
	return e.Status != ""
}
