package delivery

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
)

var (
	// ErrDeliveryIsNotConstructed is returned when a Delivery instance was not created
	// through NewDelivery or RestoreDelivery.
	ErrDeliveryIsNotConstructed = errors.New("Delivery must be created via NewDelivery or RestoreDelivery")

	// ErrStaleEvent is returned when a provider event is not newer than the last one applied.
	// Callers drop such events; the aggregate is left unchanged.
	ErrStaleEvent = errors.New("event is not newer than the last applied event")
)

// Delivery is the aggregate root for one order's delivery. It owns the provider binding,
// the status lifecycle, the pickup and dropoff stops, the courier, fees and refund.
//
// Delivery follows these invariants:
//   - It always references exactly one order (orderID is required)
//   - The dropoff stop always has an address
//   - The provider is set before the status leaves Pending, and cannot change afterwards
//   - Fees and stops are frozen once the provider confirms dispatch
//   - A courier is present only once a provider is bound
//   - Status changes only through Transition; every change records a StatusChanged event
//   - A refund is attached only to a cancelled or returned delivery
type Delivery struct {
	id           kernel.UUID
	orderID      string
	restaurantID string
	channel      Channel

	// provider is ProviderUnset until the assignment resolver binds one.
	provider           Provider
	providerIdentifier string
	trackingURL        string
	collectionCode     string

	status  Status
	pickUp  Stop
	dropOff Stop
	fees    kernel.Money

	courier    *Courier
	locationAt *time.Time

	refund *Refund

	dispatchAttempts  int
	lastDispatchError string
	failureReason     string
	dispatchedAt      *time.Time

	// lastEventAt is the timestamp of the newest applied status change; older provider
	// events are rejected with ErrStaleEvent.
	lastEventAt *time.Time

	createdAt time.Time
	updatedAt time.Time

	events []StatusChanged

	isConstructed bool
}

// DispatchConfirmation is what a provider returns when it accepts a delivery.
type DispatchConfirmation struct {
	ProviderIdentifier string
	TrackingURL        string
	CollectionCode     string
	PickupEta          *time.Time
	DropoffEta         *time.Time
	// Fee, when set, replaces the quoted fee before it is frozen.
	Fee *kernel.Money
}

// Snapshot is the full persisted state of a Delivery, used by RestoreDelivery and by
// the persistence adapter.
type Snapshot struct {
	ID                 kernel.UUID
	OrderID            string
	RestaurantID       string
	Channel            Channel
	Provider           Provider
	ProviderIdentifier string
	TrackingURL        string
	CollectionCode     string
	Status             Status
	PickUp             Stop
	DropOff            Stop
	Fees               kernel.Money
	Courier            *Courier
	CourierLocationAt  *time.Time
	Refund             *Refund
	DispatchAttempts   int
	LastDispatchError  string
	FailureReason      string
	DispatchedAt       *time.Time
	LastEventAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewDelivery creates a Delivery in Pending status.
//
// provider may be ProviderUnset for third-party-channel orders whose restaurant has not
// chosen a delivery method yet. All validation failures are returned joined.
//
// Example:
//
//	dropOff, _ := delivery.NewStop("dropOff", "Ana", "+51999888777", "Av. Larco 101", "", delivery.StopWindow{})
//	d, err := delivery.NewDelivery(kernel.NewUUID(), "order_1", "rest_1", delivery.ChannelNative,
//	    pickUp, dropOff, fees, delivery.ProviderUberDirect)
func NewDelivery(
	id kernel.UUID,
	orderID string,
	restaurantID string,
	channel Channel,
	pickUp Stop,
	dropOff Stop,
	fees kernel.Money,
	provider Provider,
) (*Delivery, error) {
	var providerErr error
	if provider != ProviderUnset {
		providerErr = provider.Validate()
	}

	now := time.Now().UTC()
	d := &Delivery{
		status:        Pending,
		provider:      provider,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setOrderID(orderID),
		d.setRestaurantID(restaurantID),
		d.setChannel(channel),
		d.setPickUp(pickUp),
		d.setDropOff(dropOff),
		d.setFees(fees),
		providerErr,
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDelivery rebuilds a Delivery from persisted state, re-checking its invariants.
func RestoreDelivery(s Snapshot) (*Delivery, error) {
	d := &Delivery{
		provider:           s.Provider,
		providerIdentifier: s.ProviderIdentifier,
		trackingURL:        s.TrackingURL,
		collectionCode:     s.CollectionCode,
		status:             s.Status,
		courier:            s.Courier,
		locationAt:         s.CourierLocationAt,
		refund:             s.Refund,
		dispatchAttempts:   s.DispatchAttempts,
		lastDispatchError:  s.LastDispatchError,
		failureReason:      s.FailureReason,
		dispatchedAt:       s.DispatchedAt,
		lastEventAt:        s.LastEventAt,
		createdAt:          s.CreatedAt.UTC(),
		updatedAt:          s.UpdatedAt.UTC(),
		isConstructed:      true,
	}

	if err := errors.Join(
		d.setID(s.ID),
		d.setOrderID(s.OrderID),
		d.setRestaurantID(s.RestaurantID),
		d.setChannel(s.Channel),
		d.setPickUp(s.PickUp),
		d.setDropOff(s.DropOff),
		d.setFees(s.Fees),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if err := d.checkInvariants(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate ensures the Delivery was created through NewDelivery or RestoreDelivery.
func (d *Delivery) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDeliveryIsNotConstructed
	}
	return nil
}

// IsEqual compares deliveries by identity.
func (d *Delivery) IsEqual(other *Delivery) bool {
	return other != nil && d.id.IsEqual(other.id)
}

func (d *Delivery) ID() kernel.UUID { return d.id }
func (d *Delivery) OrderID() string { return d.orderID }
func (d *Delivery) RestaurantID() string { return d.restaurantID }
func (d *Delivery) Channel() Channel { return d.channel }
func (d *Delivery) Provider() Provider { return d.provider }
func (d *Delivery) ProviderIdentifier() string { return d.providerIdentifier }
func (d *Delivery) TrackingURL() string { return d.trackingURL }
func (d *Delivery) CollectionCode() string { return d.collectionCode }
func (d *Delivery) Status() Status { return d.status }
func (d *Delivery) PickUp() Stop { return d.pickUp }
func (d *Delivery) DropOff() Stop { return d.dropOff }
func (d *Delivery) Fees() kernel.Money { return d.fees }
func (d *Delivery) Courier() *Courier { return d.courier }
func (d *Delivery) Refund() *Refund { return d.refund }
func (d *Delivery) DispatchAttempts() int { return d.dispatchAttempts }
func (d *Delivery) LastDispatchError() string { return d.lastDispatchError }
func (d *Delivery) FailureReason() string { return d.failureReason }
func (d *Delivery) DispatchedAt() *time.Time { return d.dispatchedAt }
func (d *Delivery) CreatedAt() time.Time { return d.createdAt }
func (d *Delivery) UpdatedAt() time.Time { return d.updatedAt }
func (d *Delivery) HasProvider() bool { return d.provider != ProviderUnset }
func (d *Delivery) IsDispatched() bool { return d.dispatchedAt != nil }
func (d *Delivery) IsFailed() bool { return d.failureReason != "" }
func (d *Delivery) CourierLocationAt() *time.Time { return d.locationAt }

// Snapshot returns the full state for persistence.
func (d *Delivery) Snapshot() Snapshot {
	return Snapshot{
		ID:                 d.id,
		OrderID:            d.orderID,
		RestaurantID:       d.restaurantID,
		Channel:            d.channel,
		Provider:           d.provider,
		ProviderIdentifier: d.providerIdentifier,
		TrackingURL:        d.trackingURL,
		CollectionCode:     d.collectionCode,
		Status:             d.status,
		PickUp:             d.pickUp,
		DropOff:            d.dropOff,
		Fees:               d.fees,
		Courier:            d.courier,
		CourierLocationAt:  d.locationAt,
		Refund:             d.refund,
		DispatchAttempts:   d.dispatchAttempts,
		LastDispatchError:  d.lastDispatchError,
		FailureReason:      d.failureReason,
		DispatchedAt:       d.dispatchedAt,
		LastEventAt:        d.lastEventAt,
		CreatedAt:          d.createdAt,
		UpdatedAt:          d.updatedAt,
	}
}

// AssignProvider binds the delivery to a provider and, optionally, its external key.
//
// While the delivery is Pending and not yet dispatched the binding may be set again
// (repeating the same call is a no-op). Once the status has left Pending, or a dispatch
// has been confirmed with another provider, it fails with InvalidStateError; moving to a
// different provider then requires cancelling and creating a new delivery.
func (d *Delivery) AssignProvider(provider Provider, providerIdentifier string) error {
	if err := provider.Validate(); err != nil {
		return err
	}
	providerIdentifier = strings.TrimSpace(providerIdentifier)

	if d.status != Pending {
		return errs.NewInvalidStateError("assign provider", d.status.String())
	}

	if d.IsDispatched() {
		if provider == d.provider && (providerIdentifier == "" || providerIdentifier == d.providerIdentifier) {
			return nil
		}
		return errs.NewInvalidStateErrorWithCause("assign provider", d.status.String(),
			fmt.Errorf("already dispatched to %s", d.provider))
	}

	if provider == d.provider && providerIdentifier == d.providerIdentifier {
		return nil
	}

	d.provider = provider
	d.providerIdentifier = providerIdentifier
	d.touch()
	return nil
}

// ConfirmDispatch records the provider's acceptance of the delivery and freezes fees and stops.
func (d *Delivery) ConfirmDispatch(c DispatchConfirmation) error {
	if !d.HasProvider() {
		return errs.NewInvalidStateError("confirm dispatch", "no provider is assigned")
	}
	if d.status.IsTerminal() {
		return errs.NewInvalidStateError("confirm dispatch", d.status.String())
	}
	if d.IsDispatched() {
		return errs.NewInvalidStateError("confirm dispatch", "already dispatched")
	}

	identifier := strings.TrimSpace(c.ProviderIdentifier)
	if identifier == "" {
		return errs.NewValueIsRequiredError("providerIdentifier")
	}

	if c.Fee != nil {
		if err := d.setFees(*c.Fee); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	d.providerIdentifier = identifier
	d.trackingURL = strings.TrimSpace(c.TrackingURL)
	if code := strings.TrimSpace(c.CollectionCode); code != "" {
		d.collectionCode = code
	}
	if c.PickupEta != nil {
		d.pickUp = d.pickUp.WithEta(*c.PickupEta)
	}
	if c.DropoffEta != nil {
		d.dropOff = d.dropOff.WithEta(*c.DropoffEta)
	}
	d.lastDispatchError = ""
	d.dispatchedAt = &now
	d.updatedAt = now
	return nil
}

// RecordDispatchFailure counts a failed (already retried) dispatch round and returns the
// number of rounds failed so far.
func (d *Delivery) RecordDispatchFailure(reason string) int {
	d.dispatchAttempts++
	d.lastDispatchError = strings.TrimSpace(reason)
	d.touch()
	return d.dispatchAttempts
}

// MarkFailed moves a delivery that could not be dispatched to Cancelled and records why,
// so the restaurant sees actionable state instead of a silently stale Pending.
func (d *Delivery) MarkFailed(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("failureReason")
	}

	if err := d.changeStatus(Cancelled, StrictPolicy, time.Time{}, reason); err != nil {
		return err
	}
	d.failureReason = reason
	return nil
}

// Cancel applies a restaurant, customer or system cancellation.
//
// Once the order has been picked up (pickup_complete or later) cancellation is rejected
// with InvalidStateError; the provider must report a return instead.
func (d *Delivery) Cancel(reason string) error {
	if d.status.IsPastPickup() && !d.status.IsTerminal() {
		return errs.NewInvalidStateErrorWithCause("cancel", d.status.String(),
			errors.New("order already picked up, it can only be returned"))
	}
	return d.changeStatus(Cancelled, StrictPolicy, time.Time{}, strings.TrimSpace(reason))
}

// RecalculateFees replaces the delivery fee; allowed until dispatch is confirmed.
func (d *Delivery) RecalculateFees(fees kernel.Money) error {
	if d.IsDispatched() {
		return errs.NewInvalidStateError("recalculate fees", "dispatch confirmed")
	}
	if d.status.IsTerminal() {
		return errs.NewInvalidStateError("recalculate fees", d.status.String())
	}
	if err := d.setFees(fees); err != nil {
		return err
	}
	d.touch()
	return nil
}

// UpdateStops replaces the pickup and dropoff stops; allowed until dispatch is confirmed.
func (d *Delivery) UpdateStops(pickUp, dropOff Stop) error {
	if d.IsDispatched() || d.status != Pending {
		return errs.NewInvalidStateError("update stops", "dispatch confirmed")
	}
	if err := errors.Join(pickUp.Validate(), dropOff.Validate()); err != nil {
		return err
	}
	d.pickUp = pickUp
	d.dropOff = dropOff
	d.touch()
	return nil
}

// AssignCourier records the individual performing the delivery. The same courier id
// keeps its last known location.
func (d *Delivery) AssignCourier(c Courier) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !d.HasProvider() {
		return errs.NewInvalidStateError("assign courier", "no provider is assigned")
	}
	if d.status.IsTerminal() {
		return errs.NewInvalidStateError("assign courier", d.status.String())
	}

	if d.courier != nil && d.courier.IsSamePerson(c) && c.Location() == nil && d.courier.Location() != nil {
		c = c.WithLocation(*d.courier.Location())
	} else if d.courier != nil && !d.courier.IsSamePerson(c) {
		d.locationAt = nil
	}

	d.courier = &c
	d.touch()
	return nil
}

// UpdateCourierLocation stores a live GPS ping taken at the given time.
//
// Pings are accepted only while the status is pickup, pickup_imminent, dropoff or
// dropoff_imminent and a courier is assigned; otherwise InvalidStateError is returned and
// nothing changes. A ping not newer than the last applied one is ignored (false, nil), so
// out-of-order deliveries of GPS events do not move the courier backwards.
func (d *Delivery) UpdateCourierLocation(point kernel.GeoPoint, at time.Time) (bool, error) {
	if err := point.Validate(); err != nil {
		return false, err
	}
	if !d.status.TracksCourierLocation() {
		return false, errs.NewInvalidStateError("update courier location", d.status.String())
	}
	if d.courier == nil {
		return false, errs.NewInvalidStateError("update courier location", "no courier is assigned")
	}

	at = normalizeEventTime(at)
	if d.locationAt != nil && !at.After(*d.locationAt) {
		return false, nil
	}

	moved := d.courier.WithLocation(point)
	d.courier = &moved
	d.locationAt = &at
	d.touch()
	return true, nil
}

// ApplyStatus moves the delivery to status using the transition engine under policy.
//
// at is the time the change happened at the provider. Changes not newer than the last
// applied one fail with ErrStaleEvent and leave the aggregate unchanged. A zero at marks
// a local command: it is applied now and skips the staleness check. Leaving Pending
// requires a bound provider.
func (d *Delivery) ApplyStatus(status Status, policy TransitionPolicy, at time.Time) error {
	return d.changeStatus(status, policy, at, "")
}

// AttachRefund records a refund for a cancelled or returned delivery. A delivery holds
// at most one refund.
func (d *Delivery) AttachRefund(r Refund) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if d.status != Cancelled && d.status != Returned {
		return errs.NewInvalidStateError("attach refund", d.status.String())
	}
	if d.refund != nil {
		return errs.NewInvalidStateError("attach refund", "refund already attached")
	}
	if r.Amount().Currency() != d.fees.Currency() {
		return errs.NewValueIsInvalidErrorWithCause("refund.amount", kernel.ErrCurrencyMismatch)
	}

	d.refund = &r
	d.touch()
	return nil
}

// DomainEvents returns the status changes recorded since the last ClearDomainEvents.
func (d *Delivery) DomainEvents() []StatusChanged {
	return append([]StatusChanged(nil), d.events...)
}

func (d *Delivery) ClearDomainEvents() {
	d.events = nil
}

func (d *Delivery) changeStatus(requested Status, policy TransitionPolicy, at time.Time, reason string) error {
	if requested != Cancelled && d.status == Pending && !d.HasProvider() {
		return errs.NewInvalidStateError("leave pending", "no provider is assigned")
	}

	// Local commands carry no provider timestamp and are never stale.
	local := at.IsZero()
	at = normalizeEventTime(at)
	if !local && d.lastEventAt != nil && !at.After(*d.lastEventAt) {
		return fmt.Errorf("%w: %s at %s, last applied at %s",
			ErrStaleEvent, requested, at.Format(time.RFC3339Nano), d.lastEventAt.Format(time.RFC3339Nano))
	}

	next, err := Transition(d.status, requested, policy)
	if err != nil {
		return err
	}
	if local && d.lastEventAt != nil && d.lastEventAt.After(at) {
		at = *d.lastEventAt
	}

	d.events = append(d.events, StatusChanged{
		DeliveryID:   d.id,
		OrderID:      d.orderID,
		RestaurantID: d.restaurantID,
		Provider:     d.provider,
		From:         d.status,
		To:           next,
		Reason:       reason,
		TrackingURL:  d.trackingURL,
		OccurredAt:   at,
	})

	d.status = next
	d.lastEventAt = &at
	d.touch()
	return nil
}

func (d *Delivery) checkInvariants() error {
	if d.provider != ProviderUnset {
		if err := d.provider.Validate(); err != nil {
			return err
		}
	}
	if d.status != Pending && d.status != Cancelled && !d.HasProvider() {
		return errs.NewValueIsInvalidErrorWithCause("provider",
			fmt.Errorf("%s delivery must have a provider", d.status))
	}
	if d.courier != nil {
		if err := d.courier.Validate(); err != nil {
			return err
		}
		if !d.HasProvider() {
			return errs.NewValueIsInvalidErrorWithCause("courier", errors.New("courier without provider"))
		}
	}
	if d.refund != nil && d.status != Cancelled && d.status != Returned {
		return errs.NewValueIsInvalidErrorWithCause("refund",
			fmt.Errorf("%s delivery cannot hold a refund", d.status))
	}
	if d.dispatchedAt != nil && d.providerIdentifier == "" {
		return errs.NewValueIsRequiredError("providerIdentifier")
	}
	return nil
}

func (d *Delivery) touch() {
	d.updatedAt = time.Now().UTC()
}

func (d *Delivery) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Delivery) setOrderID(orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderId")
	}
	d.orderID = orderID
	return nil
}

func (d *Delivery) setRestaurantID(restaurantID string) error {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return errs.NewValueIsRequiredError("restaurantId")
	}
	d.restaurantID = restaurantID
	return nil
}

func (d *Delivery) setChannel(channel Channel) error {
	if err := channel.Validate(); err != nil {
		return err
	}
	d.channel = channel
	return nil
}

func (d *Delivery) setPickUp(pickUp Stop) error {
	if err := pickUp.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("pickUp.address", err)
	}
	d.pickUp = pickUp
	return nil
}

func (d *Delivery) setDropOff(dropOff Stop) error {
	if err := dropOff.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("dropOff.address", err)
	}
	d.dropOff = dropOff
	return nil
}

func (d *Delivery) setFees(fees kernel.Money) error {
	if err := fees.Validate(); err != nil {
		return err
	}
	d.fees = fees
	return nil
}

func normalizeEventTime(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
