package commands

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var ErrCancelDeliveryCommandIsNotConstructed = errors.New(
	"CancelDeliveryCommand must be created via NewCancelDeliveryCommand constructor",
)

// CancelDeliveryCommand cancels a delivery on behalf of the restaurant, the customer or
// the system.
type CancelDeliveryCommand struct {
	deliveryID kernel.UUID
	reason     string
	guard      guard.ConstructorGuard
}

func NewCancelDeliveryCommand(deliveryID kernel.UUID, reason string) (CancelDeliveryCommand, error) {
	var reasonErr error
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reasonErr = errs.NewValueIsRequiredError("reason")
	}
	if err := errors.Join(deliveryID.Validate(), reasonErr); err != nil {
		return CancelDeliveryCommand{}, err
	}

	return CancelDeliveryCommand{deliveryID: deliveryID, reason: reason, guard: guard.NewConstructorGuard()}, nil
}

func (c CancelDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCancelDeliveryCommandIsNotConstructed)
}

func (c CancelDeliveryCommand) DeliveryID() kernel.UUID { return c.deliveryID }

func (c CancelDeliveryCommand) Reason() string { return c.reason }
