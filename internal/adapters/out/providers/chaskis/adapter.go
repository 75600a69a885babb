// Package chaskis integrates the Chaskis courier network: a JSON API keyed by an API
// key header, with webhooks and a status endpoint for polling.
package chaskis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"deliveryhub/internal/adapters/out/providers/httpjson"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

const apiKeyHeader = "X-Api-Key"

// Chaskis event vocabulary. ORDER_ACCEPTED only acknowledges the booking and
// DRIVER_LOCATION carries a position without a status change.
var statusByEvent = map[string]delivery.Status{
	"ORDER_ACCEPTED":   "",
	"DRIVER_ASSIGNED":  delivery.Pickup,
	"ARRIVING_PICKUP":  delivery.PickupImminent,
	"PICKED_UP":        delivery.PickupComplete,
	"ON_ROUTE":         delivery.Dropoff,
	"ARRIVING_DROPOFF": delivery.DropoffImminent,
	"DELIVERED":        delivery.Delivered,
	"CANCELLED":        delivery.Cancelled,
	"RETURNED":         delivery.Returned,
	"DRIVER_LOCATION":  "",
}

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Currency string
}

type Adapter struct {
	client   *httpjson.Client
	currency string
	now      func() time.Time
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.Currency == "" {
		cfg.Currency = "PEN"
	}
	return &Adapter{
		client:   httpjson.NewClient(cfg.BaseURL, cfg.Timeout, http.Header{apiKeyHeader: {cfg.APIKey}}),
		currency: cfg.Currency,
		now:      time.Now,
	}
}

func (a *Adapter) Provider() delivery.Provider {
	return delivery.ProviderChaskis
}

type stopDTO struct {
	Name     string     `json:"name"`
	Phone    string     `json:"phone,omitempty"`
	Address  string     `json:"address"`
	Note     string     `json:"note,omitempty"`
	ReadyAt  *time.Time `json:"ready_at,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type quoteRequest struct {
	PickupAddress  string     `json:"pickup_address"`
	DropoffAddress string     `json:"dropoff_address"`
	ReadyAt        *time.Time `json:"ready_at,omitempty"`
}

type quoteResponse struct {
	ID         string     `json:"id"`
	Covered    bool       `json:"covered"`
	Reason     string     `json:"reason"`
	Fee        string     `json:"fee"`
	DropoffEta *time.Time `json:"dropoff_eta"`
}

type orderRequest struct {
	ExternalID string  `json:"external_id"`
	QuoteFee   string  `json:"quoted_fee"`
	Pickup     stopDTO `json:"pickup"`
	Dropoff    stopDTO `json:"dropoff"`
}

type orderResponse struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	TrackingURL    string       `json:"tracking_url"`
	CollectionCode string       `json:"collection_code"`
	Fee            string       `json:"fee"`
	PickupEta      *time.Time   `json:"pickup_eta"`
	DropoffEta     *time.Time   `json:"dropoff_eta"`
	Driver         *driverDTO   `json:"driver"`
	Location       *locationDTO `json:"location"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type driverDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photo_url"`
}

type locationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type webhookPayload struct {
	Event     string       `json:"event"`
	OrderID   string       `json:"order_id"`
	Driver    *driverDTO   `json:"driver"`
	Location  *locationDTO `json:"location"`
	Tracking  string       `json:"tracking_url"`
	Reason    string       `json:"reason"`
	Timestamp time.Time    `json:"timestamp"`
}

// CheckAvailability asks the quotes endpoint, which answers with coverage for the pair
// of addresses.
func (a *Adapter) CheckAvailability(ctx context.Context, req ports.AvailabilityRequest) (ports.Availability, error) {
	resp, err := a.quote(ctx, req)
	if err != nil {
		return ports.Availability{}, err
	}
	return ports.Availability{Available: resp.Covered, Reason: resp.Reason}, nil
}

func (a *Adapter) Quote(ctx context.Context, req ports.AvailabilityRequest) (ports.Quote, error) {
	resp, err := a.quote(ctx, req)
	if err != nil {
		return ports.Quote{}, err
	}
	if !resp.Covered {
		return ports.Quote{}, errs.NewProviderUnavailableError(delivery.ProviderChaskis.String(), resp.Reason)
	}
	fee, err := kernel.MoneyFromString(resp.Fee, a.currency)
	if err != nil {
		return ports.Quote{}, errs.NewValueIsInvalidErrorWithCause("quote.fee", err)
	}
	return ports.Quote{Fee: fee, DropoffEta: resp.DropoffEta, ExternalID: resp.ID}, nil
}

func (a *Adapter) quote(ctx context.Context, req ports.AvailabilityRequest) (quoteResponse, error) {
	var resp quoteResponse
	err := a.client.Do(ctx, http.MethodPost, "/v1/quotes", quoteRequest{
		PickupAddress:  req.PickUpAddress,
		DropoffAddress: req.DropOffAddress,
		ReadyAt:        req.ReadyTime,
	}, &resp)
	return resp, err
}

func (a *Adapter) Dispatch(ctx context.Context, d *delivery.Delivery) (delivery.DispatchConfirmation, error) {
	var resp orderResponse
	err := a.client.Do(ctx, http.MethodPost, "/v1/orders", orderRequest{
		ExternalID: d.ID().String(),
		QuoteFee:   d.Fees().Amount().StringFixed(2),
		Pickup:     toStopDTO(d.PickUp()),
		Dropoff:    toStopDTO(d.DropOff()),
	}, &resp)
	if err != nil {
		if httpjson.IsTransient(err) {
			return delivery.DispatchConfirmation{}, errs.NewRetryableDispatchError(delivery.ProviderChaskis.String(), err)
		}
		return delivery.DispatchConfirmation{}, errs.NewDispatchError(delivery.ProviderChaskis.String(), err)
	}
	if resp.ID == "" {
		return delivery.DispatchConfirmation{}, errs.NewDispatchError(delivery.ProviderChaskis.String(),
			errs.NewValueIsRequiredError("id"))
	}

	confirmation := delivery.DispatchConfirmation{
		ProviderIdentifier: resp.ID,
		TrackingURL:        resp.TrackingURL,
		CollectionCode:     resp.CollectionCode,
		PickupEta:          resp.PickupEta,
		DropoffEta:         resp.DropoffEta,
	}
	if resp.Fee != "" {
		if fee, feeErr := kernel.MoneyFromString(resp.Fee, d.Fees().Currency()); feeErr == nil {
			confirmation.Fee = &fee
		}
	}
	return confirmation, nil
}

// Cancel treats 404 and 409 as an order that is already gone or already cancelled.
func (a *Adapter) Cancel(ctx context.Context, providerIdentifier string) error {
	err := a.client.Do(ctx, http.MethodPost, "/v1/orders/"+url.PathEscape(providerIdentifier)+"/cancel", nil, nil)
	switch {
	case err == nil:
		return nil
	case httpjson.StatusCode(err) == http.StatusNotFound, httpjson.StatusCode(err) == http.StatusConflict:
		return nil
	case httpjson.IsTransient(err):
		return errs.NewRetryableCancelError(delivery.ProviderChaskis.String(), providerIdentifier, err)
	default:
		return errs.NewCancelError(delivery.ProviderChaskis.String(), providerIdentifier, err)
	}
}

// Poll reads the order from the status endpoint and reports it as a "POLL" event.
func (a *Adapter) Poll(ctx context.Context, providerIdentifier string) (ports.ProviderEvent, error) {
	var resp orderResponse
	if err := a.client.Do(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(providerIdentifier), nil, &resp); err != nil {
		return ports.ProviderEvent{}, err
	}
	return a.toEvent(webhookPayload{
		Event:     resp.Status,
		OrderID:   providerIdentifier,
		Driver:    resp.Driver,
		Location:  resp.Location,
		Tracking:  resp.TrackingURL,
		Timestamp: resp.UpdatedAt,
	}, "POLL:"+resp.Status)
}

func (a *Adapter) NormalizeWebhook(payload []byte) (ports.ProviderEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(delivery.ProviderChaskis.String(), "", err)
	}
	return a.toEvent(p, p.Event)
}

func (a *Adapter) toEvent(p webhookPayload, eventType string) (ports.ProviderEvent, error) {
	status, known := statusByEvent[p.Event]
	if !known {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadError(delivery.ProviderChaskis.String(), eventType)
	}
	if p.OrderID == "" {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
			delivery.ProviderChaskis.String(), eventType, errs.NewValueIsRequiredError("order_id"))
	}

	event := ports.ProviderEvent{
		Provider:           delivery.ProviderChaskis,
		ProviderIdentifier: p.OrderID,
		EventType:          eventType,
		Status:             status,
		TrackingURL:        p.Tracking,
		Reason:             p.Reason,
		OccurredAt:         p.Timestamp,
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now().UTC()
	}

	if p.Driver != nil && p.Driver.ID != "" {
		courier, err := delivery.NewCourier(p.Driver.ID, p.Driver.Name, p.Driver.Phone, p.Driver.PhotoURL)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderChaskis.String(), eventType, err)
		}
		event.Courier = &courier
	}
	if p.Location != nil {
		point, err := kernel.NewGeoPoint(p.Location.Lat, p.Location.Lng)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderChaskis.String(), eventType, err)
		}
		event.Location = &point
	}
	return event, nil
}

func toStopDTO(s delivery.Stop) stopDTO {
	return stopDTO{
		Name:     s.Name(),
		Phone:    s.Phone(),
		Address:  s.Address(),
		Note:     s.Note(),
		ReadyAt:  s.ReadyTime(),
		Deadline: s.DeadlineTime(),
	}
}
