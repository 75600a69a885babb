package commands

import (
	"errors"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/guard"
)

var ErrDispatchDeliveryCommandIsNotConstructed = errors.New(
	"DispatchDeliveryCommand must be created via NewDispatchDeliveryCommand constructor",
)

// DispatchDeliveryCommand books a pending delivery with its assigned provider.
type DispatchDeliveryCommand struct {
	deliveryID kernel.UUID
	guard      guard.ConstructorGuard
}

func NewDispatchDeliveryCommand(deliveryID kernel.UUID) (DispatchDeliveryCommand, error) {
	if err := deliveryID.Validate(); err != nil {
		return DispatchDeliveryCommand{}, err
	}
	return DispatchDeliveryCommand{deliveryID: deliveryID, guard: guard.NewConstructorGuard()}, nil
}

func (c DispatchDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrDispatchDeliveryCommandIsNotConstructed)
}

func (c DispatchDeliveryCommand) DeliveryID() kernel.UUID {
	return c.deliveryID
}
