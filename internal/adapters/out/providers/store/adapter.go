// Package store is the adapter for the restaurant's own couriers. Nothing leaves the
// process on dispatch; the courier app reports progress through the store webhook.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

const identifierPrefix = "store_"

const (
	eventStatus   = "status_update"
	eventLocation = "location_update"
	eventCourier  = "courier_assigned"
)

type Config struct {
	// Fee is the flat delivery fee quoted to customers.
	Fee kernel.Money
	// DropoffEta is how long a delivery takes once ready.
	DropoffEta time.Duration
	// OpensAt and ClosesAt bound the hours couriers work, as offsets from midnight in
	// Location. Equal values mean always open.
	OpensAt  time.Duration
	ClosesAt time.Duration
	Location *time.Location
	// TrackingBaseURL, when set, is joined with the delivery identifier.
	TrackingBaseURL string
}

type Adapter struct {
	cfg Config
	now func() time.Time
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Adapter{cfg: cfg, now: time.Now}
}

func (a *Adapter) Provider() delivery.Provider {
	return delivery.ProviderStore
}

func (a *Adapter) CheckAvailability(_ context.Context, req ports.AvailabilityRequest) (ports.Availability, error) {
	at := a.now()
	if req.ReadyTime != nil {
		at = *req.ReadyTime
	}
	if !a.isOpen(at) {
		return ports.Availability{Available: false, Reason: "outside store delivery hours"}, nil
	}
	return ports.Availability{Available: true}, nil
}

func (a *Adapter) Quote(_ context.Context, req ports.AvailabilityRequest) (ports.Quote, error) {
	start := a.now()
	if req.ReadyTime != nil && req.ReadyTime.After(start) {
		start = *req.ReadyTime
	}
	eta := start.Add(a.cfg.DropoffEta).UTC()
	return ports.Quote{Fee: a.cfg.Fee, DropoffEta: &eta}, nil
}

// Dispatch derives the identifier from the delivery id, so a repeated dispatch books
// the same delivery again.
func (a *Adapter) Dispatch(_ context.Context, d *delivery.Delivery) (delivery.DispatchConfirmation, error) {
	identifier := identifierPrefix + d.ID().String()

	confirmation := delivery.DispatchConfirmation{
		ProviderIdentifier: identifier,
		CollectionCode:     collectionCode(identifier),
	}
	if a.cfg.TrackingBaseURL != "" {
		confirmation.TrackingURL = strings.TrimRight(a.cfg.TrackingBaseURL, "/") + "/" + identifier
	}
	if ready := d.PickUp().ReadyTime(); ready != nil {
		eta := ready.UTC()
		confirmation.PickupEta = &eta
	}
	return confirmation, nil
}

// Cancel has nothing to release; the courier app stops showing cancelled deliveries.
func (a *Adapter) Cancel(context.Context, string) error {
	return nil
}

type webhookPayload struct {
	Event      string          `json:"event"`
	DeliveryID string          `json:"delivery_id"`
	Status     string          `json:"status"`
	Courier    *webhookCourier `json:"courier"`
	Location   *webhookPoint   `json:"location"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type webhookCourier struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	ImageURL string `json:"image_url"`
}

type webhookPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NormalizeWebhook reads the courier app's reports. The app speaks the domain status
// vocabulary, so statuses are only validated.
func (a *Adapter) NormalizeWebhook(payload []byte) (ports.ProviderEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(delivery.ProviderStore.String(), "", err)
	}

	event := ports.ProviderEvent{
		Provider:           delivery.ProviderStore,
		ProviderIdentifier: p.DeliveryID,
		EventType:          p.Event,
		OccurredAt:         p.OccurredAt,
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now().UTC()
	}

	switch p.Event {
	case eventStatus:
		status, err := delivery.ParseStatus(p.Status)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderStore.String(), p.Event, err)
		}
		event.Status = status
	case eventLocation, eventCourier:
	default:
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadError(delivery.ProviderStore.String(), p.Event)
	}

	if p.Courier != nil {
		courier, err := delivery.NewCourier(p.Courier.ID, p.Courier.Name, p.Courier.Phone, p.Courier.ImageURL)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderStore.String(), p.Event, err)
		}
		event.Courier = &courier
	}
	if p.Location != nil {
		point, err := kernel.NewGeoPoint(p.Location.Latitude, p.Location.Longitude)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderStore.String(), p.Event, err)
		}
		event.Location = &point
	}
	if p.Event == eventLocation && event.Location == nil {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
			delivery.ProviderStore.String(), p.Event, errs.NewValueIsRequiredError("location"))
	}
	if p.Event == eventCourier && event.Courier == nil {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
			delivery.ProviderStore.String(), p.Event, errs.NewValueIsRequiredError("courier"))
	}

	return event, nil
}

func (a *Adapter) isOpen(at time.Time) bool {
	if a.cfg.OpensAt == a.cfg.ClosesAt {
		return true
	}
	local := at.In(a.cfg.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.cfg.Location)
	offset := local.Sub(midnight)

	if a.cfg.OpensAt < a.cfg.ClosesAt {
		return offset >= a.cfg.OpensAt && offset < a.cfg.ClosesAt
	}
	// Overnight hours, e.g. 18:00 to 02:00.
	return offset >= a.cfg.OpensAt || offset < a.cfg.ClosesAt
}

// collectionCode is the four-digit code the courier shows at pickup.
func collectionCode(identifier string) string {
	return fmt.Sprintf("%04d", crc32.ChecksumIEEE([]byte(identifier))%10000)
}
