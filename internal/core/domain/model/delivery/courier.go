package delivery

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

// ErrCourierIsNotConstructed is returned when a zero-value Courier is validated.
var ErrCourierIsNotConstructed = errs.NewValueIsRequiredError("courier must be created via NewCourier")

// Courier is the individual performing pickup and dropoff, either store staff or a
// driver named by a third-party provider.
type Courier struct {
	id       string
	name     string
	phone    string
	imageURL string
	location *kernel.GeoPoint
	guard    guard.ConstructorGuard
}

// NewCourier requires the provider-side courier id and a display name.
func NewCourier(id, name, phone, imageURL string) (Courier, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)

	var missing []error
	if id == "" {
		missing = append(missing, errs.NewValueIsRequiredError("courier.id"))
	}
	if name == "" {
		missing = append(missing, errs.NewValueIsRequiredError("courier.name"))
	}
	if len(missing) > 0 {
		return Courier{}, errors.Join(missing...)
	}

	return Courier{
		id:       id,
		name:     name,
		phone:    strings.TrimSpace(phone),
		imageURL: strings.TrimSpace(imageURL),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c Courier) Validate() error {
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c Courier) ID() string { return c.id }
func (c Courier) Name() string { return c.name }
func (c Courier) Phone() string { return c.phone }
func (c Courier) ImageURL() string { return c.imageURL }
func (c Courier) Location() *kernel.GeoPoint { return c.location }

// IsSamePerson reports whether both values describe the same courier id.
func (c Courier) IsSamePerson(other Courier) bool {
	return c.id == other.id
}

// WithLocation returns a copy of the courier at point.
func (c Courier) WithLocation(point kernel.GeoPoint) Courier {
	c.location = &point
	return c
}
