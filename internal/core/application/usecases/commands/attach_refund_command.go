package commands

import (
	"errors"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/guard"
)

var ErrAttachRefundCommandIsNotConstructed = errors.New(
	"AttachRefundCommand must be created via NewAttachRefundCommand constructor",
)

// AttachRefundCommand records money returned for a cancelled or returned delivery.
type AttachRefundCommand struct {
	deliveryID kernel.UUID
	refund     delivery.Refund
	guard      guard.ConstructorGuard
}

func NewAttachRefundCommand(deliveryID kernel.UUID, refund delivery.Refund) (AttachRefundCommand, error) {
	if err := errors.Join(deliveryID.Validate(), refund.Validate()); err != nil {
		return AttachRefundCommand{}, err
	}
	return AttachRefundCommand{deliveryID: deliveryID, refund: refund, guard: guard.NewConstructorGuard()}, nil
}

func (c AttachRefundCommand) Validate() error {
	return c.guard.Validate(ErrAttachRefundCommandIsNotConstructed)
}

func (c AttachRefundCommand) DeliveryID() kernel.UUID { return c.deliveryID }

func (c AttachRefundCommand) Refund() delivery.Refund { return c.refund }
