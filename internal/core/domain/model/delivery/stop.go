package delivery

import (
	"errors"
	"strings"
	"time"

	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

// ErrStopIsNotConstructed is returned when a zero-value Stop is validated.
var ErrStopIsNotConstructed = errs.NewValueIsRequiredError("stop must be created via NewStop")

// Stop describes one end of a delivery: where the courier picks up or drops off.
type Stop struct {
	name         string
	phone        string
	address      string
	note         string
	readyTime    *time.Time
	etaTime      *time.Time
	deadlineTime *time.Time
	guard        guard.ConstructorGuard
}

// StopWindow carries the optional time window of a stop.
type StopWindow struct {
	ReadyTime    *time.Time
	EtaTime      *time.Time
	DeadlineTime *time.Time
}

// NewStop builds a stop; address is required. paramPrefix names the stop in validation
// errors ("pickUp" or "dropOff").
func NewStop(paramPrefix, name, phone, address, note string, window StopWindow) (Stop, error) {
	var addressErr, windowErr error

	address = strings.TrimSpace(address)
	if address == "" {
		addressErr = errs.NewValueIsRequiredError(paramPrefix + ".address")
	}
	if window.ReadyTime != nil && window.DeadlineTime != nil && window.DeadlineTime.Before(*window.ReadyTime) {
		windowErr = errs.NewValueIsInvalidErrorWithCause(paramPrefix+".deadlineTime",
			errors.New("deadline is before ready time"))
	}
	if err := errors.Join(addressErr, windowErr); err != nil {
		return Stop{}, err
	}

	return Stop{
		name:         strings.TrimSpace(name),
		phone:        strings.TrimSpace(phone),
		address:      address,
		note:         note,
		readyTime:    utcPtr(window.ReadyTime),
		etaTime:      utcPtr(window.EtaTime),
		deadlineTime: utcPtr(window.DeadlineTime),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (s Stop) Validate() error {
	return s.guard.Validate(ErrStopIsNotConstructed)
}

func (s Stop) Name() string { return s.name }
func (s Stop) Phone() string { return s.phone }
func (s Stop) Address() string { return s.address }
func (s Stop) Note() string { return s.note }
func (s Stop) ReadyTime() *time.Time { return s.readyTime }
func (s Stop) EtaTime() *time.Time { return s.etaTime }
func (s Stop) DeadlineTime() *time.Time { return s.deadlineTime }

func (s Stop) Window() StopWindow {
	return StopWindow{ReadyTime: s.readyTime, EtaTime: s.etaTime, DeadlineTime: s.deadlineTime}
}

// WithEta returns a copy of the stop with a provider-supplied ETA.
func (s Stop) WithEta(eta time.Time) Stop {
	s.etaTime = utcPtr(&eta)
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
