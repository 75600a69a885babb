// Package uberdirect integrates Uber Direct deliveries for a single customer account.
package uberdirect

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"deliveryhub/internal/adapters/out/providers/httpjson"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

const (
	kindDeliveryStatus = "event.delivery_status"
	kindCourierUpdate  = "event.courier_update"

	// codeUndeliverable is answered by the quotes endpoint for addresses outside coverage.
	codeUndeliverable = "address_undeliverable"
)

// Uber Direct has no imminent statuses; see ImplicitStatuses.
var statusByUber = map[string]delivery.Status{
	"pending":         "",
	"pickup":          delivery.Pickup,
	"pickup_complete": delivery.PickupComplete,
	"dropoff":         delivery.Dropoff,
	"delivered":       delivery.Delivered,
	"canceled":        delivery.Cancelled,
	"returned":        delivery.Returned,
}

type Config struct {
	BaseURL    string
	CustomerID string
	Token      string
	Timeout    time.Duration
}

type Adapter struct {
	client     *httpjson.Client
	customerID string
	now        func() time.Time
}

func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		client: httpjson.NewClient(cfg.BaseURL, cfg.Timeout, http.Header{
			"Authorization": {"Bearer " + cfg.Token},
		}),
		customerID: cfg.CustomerID,
		now:        time.Now,
	}
}

func (a *Adapter) Provider() delivery.Provider {
	return delivery.ProviderUberDirect
}

// ImplicitStatuses lists the statuses Uber Direct never reports, so pickup is followed
// directly by pickup_complete and dropoff by delivered.
func (a *Adapter) ImplicitStatuses() []delivery.Status {
	return []delivery.Status{delivery.PickupImminent, delivery.DropoffImminent}
}

type quoteRequest struct {
	PickupAddress  string     `json:"pickup_address"`
	DropoffAddress string     `json:"dropoff_address"`
	PickupReadyDt  *time.Time `json:"pickup_ready_dt,omitempty"`
}

// quoteResponse amounts are in minor units with a lowercase currency code.
type quoteResponse struct {
	ID         string     `json:"id"`
	Fee        int64      `json:"fee"`
	Currency   string     `json:"currency"`
	DropoffEta *time.Time `json:"dropoff_eta"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type deliveryRequest struct {
	ExternalID         string     `json:"external_id"`
	PickupName         string     `json:"pickup_name"`
	PickupAddress      string     `json:"pickup_address"`
	PickupPhoneNumber  string     `json:"pickup_phone_number,omitempty"`
	PickupNotes        string     `json:"pickup_notes,omitempty"`
	PickupReadyDt      *time.Time `json:"pickup_ready_dt,omitempty"`
	DropoffName        string     `json:"dropoff_name"`
	DropoffAddress     string     `json:"dropoff_address"`
	DropoffPhoneNumber string     `json:"dropoff_phone_number,omitempty"`
	DropoffNotes       string     `json:"dropoff_notes,omitempty"`
	DropoffDeadlineDt  *time.Time `json:"dropoff_deadline_dt,omitempty"`
}

type deliveryResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	TrackingURL string     `json:"tracking_url"`
	Fee         int64      `json:"fee"`
	Currency    string     `json:"currency"`
	PickupEta   *time.Time `json:"pickup_eta"`
	DropoffEta  *time.Time `json:"dropoff_eta"`
}

type courierDTO struct {
	Name        string       `json:"name"`
	PhoneNumber string       `json:"phone_number"`
	ImgHref     string       `json:"img_href"`
	Location    *locationDTO `json:"location"`
}

type locationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type webhookPayload struct {
	Kind       string       `json:"kind"`
	EventType  string       `json:"event_type"`
	DeliveryID string       `json:"delivery_id"`
	Status     string       `json:"status"`
	Created    time.Time    `json:"created"`
	Location   *locationDTO `json:"location"`
	Data       struct {
		TrackingURL string      `json:"tracking_url"`
		Courier     *courierDTO `json:"courier"`
	} `json:"data"`
}

func (a *Adapter) CheckAvailability(ctx context.Context, req ports.AvailabilityRequest) (ports.Availability, error) {
	_, err := a.quote(ctx, req)
	if err == nil {
		return ports.Availability{Available: true}, nil
	}
	if reason, ok := undeliverable(err); ok {
		return ports.Availability{Available: false, Reason: reason}, nil
	}
	return ports.Availability{}, err
}

func (a *Adapter) Quote(ctx context.Context, req ports.AvailabilityRequest) (ports.Quote, error) {
	resp, err := a.quote(ctx, req)
	if err != nil {
		if reason, ok := undeliverable(err); ok {
			return ports.Quote{}, errs.NewProviderUnavailableError(delivery.ProviderUberDirect.String(), reason)
		}
		return ports.Quote{}, err
	}
	fee, err := kernel.MoneyFromMinorUnits(resp.Fee, resp.Currency)
	if err != nil {
		return ports.Quote{}, errs.NewValueIsInvalidErrorWithCause("quote.fee", err)
	}
	return ports.Quote{Fee: fee, DropoffEta: resp.DropoffEta, ExternalID: resp.ID}, nil
}

func (a *Adapter) quote(ctx context.Context, req ports.AvailabilityRequest) (quoteResponse, error) {
	var resp quoteResponse
	err := a.client.Do(ctx, http.MethodPost, a.customerPath("/delivery_quotes"), quoteRequest{
		PickupAddress:  req.PickUpAddress,
		DropoffAddress: req.DropOffAddress,
		PickupReadyDt:  req.ReadyTime,
	}, &resp)
	return resp, err
}

func (a *Adapter) Dispatch(ctx context.Context, d *delivery.Delivery) (delivery.DispatchConfirmation, error) {
	pickUp, dropOff := d.PickUp(), d.DropOff()

	var resp deliveryResponse
	err := a.client.Do(ctx, http.MethodPost, a.customerPath("/deliveries"), deliveryRequest{
		ExternalID:         d.ID().String(),
		PickupName:         pickUp.Name(),
		PickupAddress:      pickUp.Address(),
		PickupPhoneNumber:  pickUp.Phone(),
		PickupNotes:        pickUp.Note(),
		PickupReadyDt:      pickUp.ReadyTime(),
		DropoffName:        dropOff.Name(),
		DropoffAddress:     dropOff.Address(),
		DropoffPhoneNumber: dropOff.Phone(),
		DropoffNotes:       dropOff.Note(),
		DropoffDeadlineDt:  dropOff.DeadlineTime(),
	}, &resp)
	if err != nil {
		if httpjson.IsTransient(err) {
			return delivery.DispatchConfirmation{}, errs.NewRetryableDispatchError(delivery.ProviderUberDirect.String(), err)
		}
		return delivery.DispatchConfirmation{}, errs.NewDispatchError(delivery.ProviderUberDirect.String(), err)
	}
	if resp.ID == "" {
		return delivery.DispatchConfirmation{}, errs.NewDispatchError(delivery.ProviderUberDirect.String(),
			errs.NewValueIsRequiredError("id"))
	}

	confirmation := delivery.DispatchConfirmation{
		ProviderIdentifier: resp.ID,
		TrackingURL:        resp.TrackingURL,
		PickupEta:          resp.PickupEta,
		DropoffEta:         resp.DropoffEta,
	}
	if resp.Currency != "" {
		if fee, feeErr := kernel.MoneyFromMinorUnits(resp.Fee, resp.Currency); feeErr == nil {
			confirmation.Fee = &fee
		}
	}
	return confirmation, nil
}

// Cancel treats 404 and 409 as a delivery that is already gone or already cancelled.
func (a *Adapter) Cancel(ctx context.Context, providerIdentifier string) error {
	path := a.customerPath("/deliveries/" + url.PathEscape(providerIdentifier) + "/cancel")
	err := a.client.Do(ctx, http.MethodPost, path, nil, nil)
	switch {
	case err == nil:
		return nil
	case httpjson.StatusCode(err) == http.StatusNotFound, httpjson.StatusCode(err) == http.StatusConflict:
		return nil
	case httpjson.IsTransient(err):
		return errs.NewRetryableCancelError(delivery.ProviderUberDirect.String(), providerIdentifier, err)
	default:
		return errs.NewCancelError(delivery.ProviderUberDirect.String(), providerIdentifier, err)
	}
}

func (a *Adapter) NormalizeWebhook(payload []byte) (ports.ProviderEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(delivery.ProviderUberDirect.String(), "", err)
	}
	kind := cmp.Or(p.Kind, p.EventType)
	if p.DeliveryID == "" && (kind == kindDeliveryStatus || kind == kindCourierUpdate) {
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
			delivery.ProviderUberDirect.String(), kind, errs.NewValueIsRequiredError("delivery_id"))
	}

	event := ports.ProviderEvent{
		Provider:           delivery.ProviderUberDirect,
		ProviderIdentifier: p.DeliveryID,
		EventType:          kind,
		TrackingURL:        p.Data.TrackingURL,
		OccurredAt:         p.Created,
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.now().UTC()
	}

	switch kind {
	case kindDeliveryStatus:
		status, known := statusByUber[p.Status]
		if !known {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadError(
				delivery.ProviderUberDirect.String(), kind+":"+p.Status)
		}
		event.Status = status
	case kindCourierUpdate:
	default:
		return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadError(delivery.ProviderUberDirect.String(), kind)
	}

	location := p.Location
	if c := p.Data.Courier; c != nil {
		// Uber does not expose courier ids; the phone number is stable for one delivery.
		if id := cmp.Or(c.PhoneNumber, c.Name); id != "" {
			courier, err := delivery.NewCourier(id, c.Name, c.PhoneNumber, c.ImgHref)
			if err != nil {
				return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
					delivery.ProviderUberDirect.String(), kind, err)
			}
			event.Courier = &courier
		}
		if location == nil {
			location = c.Location
		}
	}
	if location != nil {
		point, err := kernel.NewGeoPoint(location.Lat, location.Lng)
		if err != nil {
			return ports.ProviderEvent{}, errs.NewUnrecognizedPayloadErrorWithCause(
				delivery.ProviderUberDirect.String(), kind, err)
		}
		event.Location = &point
	}
	return event, nil
}

func (a *Adapter) customerPath(suffix string) string {
	return "/v1/customers/" + url.PathEscape(a.customerID) + suffix
}

// undeliverable extracts the reason from a 400 whose body carries codeUndeliverable.
func undeliverable(err error) (string, bool) {
	var statusErr *httpjson.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadRequest {
		return "", false
	}
	var body apiError
	if json.Unmarshal([]byte(statusErr.Body), &body) != nil || body.Code != codeUndeliverable {
		return "", false
	}
	return cmp.Or(body.Message, "address outside service area"), true
}
