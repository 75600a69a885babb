package commands

import (
	"errors"
	"time"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/guard"
)

var ErrUpdateCourierLocationCommandIsNotConstructed = errors.New(
	"UpdateCourierLocationCommand must be created via NewUpdateCourierLocationCommand constructor",
)

// UpdateCourierLocationCommand carries a GPS ping from the in-house courier app.
type UpdateCourierLocationCommand struct {
	deliveryID kernel.UUID
	location   kernel.GeoPoint
	recordedAt time.Time
	guard      guard.ConstructorGuard
}

// NewUpdateCourierLocationCommand builds the command; a zero recordedAt means now.
func NewUpdateCourierLocationCommand(
	deliveryID kernel.UUID,
	location kernel.GeoPoint,
	recordedAt time.Time,
) (UpdateCourierLocationCommand, error) {
	if err := errors.Join(deliveryID.Validate(), location.Validate()); err != nil {
		return UpdateCourierLocationCommand{}, err
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	return UpdateCourierLocationCommand{
		deliveryID: deliveryID,
		location:   location,
		recordedAt: recordedAt.UTC(),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateCourierLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCourierLocationCommandIsNotConstructed)
}

func (c UpdateCourierLocationCommand) DeliveryID() kernel.UUID { return c.deliveryID }

func (c UpdateCourierLocationCommand) Location() kernel.GeoPoint { return c.location }

func (c UpdateCourierLocationCommand) RecordedAt() time.Time { return c.recordedAt }
