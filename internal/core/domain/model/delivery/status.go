package delivery

import (
	"fmt"

	"deliveryhub/internal/pkg/errs"
)

// Status is a lifecycle state of a Delivery. Values match the wire and storage form.
type Status string

const (
	Pending         Status = "pending"
	Pickup          Status = "pickup"
	PickupImminent  Status = "pickup_imminent"
	PickupComplete  Status = "pickup_complete"
	Dropoff         Status = "dropoff"
	DropoffImminent Status = "dropoff_imminent"
	Delivered       Status = "delivered"
	Cancelled       Status = "cancelled"
	Returned        Status = "returned"
)

// forwardChain is the happy path in order; a status's index is its rank.
var forwardChain = []Status{Pending, Pickup, PickupImminent, PickupComplete, Dropoff, DropoffImminent, Delivered}

// Statuses lists every status, forward chain first.
func Statuses() []Status {
	return append(append([]Status{}, forwardChain...), Cancelled, Returned)
}

// ParseStatus maps the wire name of a status to its value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

func (s Status) Validate() error {
	if s.rank() < 0 && s != Cancelled && s != Returned {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled || s == Returned
}

// IsInProgress reports whether a courier is working the delivery (pickup through dropoff_imminent).
// Only in-progress deliveries can be returned.
func (s Status) IsInProgress() bool {
	r := s.rank()
	return r >= Pickup.rank() && r <= DropoffImminent.rank()
}

// TracksCourierLocation reports whether live GPS pings are accepted in this status.
func (s Status) TracksCourierLocation() bool {
	switch s {
	case Pickup, PickupImminent, Dropoff, DropoffImminent:
		return true
	default:
		return false
	}
}

// IsPastPickup reports whether the order has already left the restaurant.
func (s Status) IsPastPickup() bool {
	return s.rank() >= PickupComplete.rank()
}

func (s Status) rank() int {
	for i, st := range forwardChain {
		if st == s {
			return i
		}
	}
	return -1
}
