package commands

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var ErrCreateDeliveryCommandIsNotConstructed = errors.New(
	"CreateDeliveryCommand must be created via NewCreateDeliveryCommand constructor",
)

// CreateDeliveryCommand registers the delivery of an order.
//
// For native-channel orders the restaurant's default provider is resolved and quoted
// synchronously. Third-party-channel deliveries are created without a provider and wait
// for AssignProviderCommand.
//
// Example:
//
//	cmd, err := NewCreateDeliveryCommand(kernel.NewUUID(), "order_1", "rest_1",
//	    delivery.ChannelNative, pickUp, dropOff, fees)
//	if err != nil {
//	    return fmt.Errorf("invalid delivery data: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
type CreateDeliveryCommand struct {
	deliveryID   kernel.UUID
	orderID      string
	restaurantID string
	channel      delivery.Channel
	pickUp       delivery.Stop
	dropOff      delivery.Stop
	fees         kernel.Money

	guard guard.ConstructorGuard
}

func NewCreateDeliveryCommand(
	deliveryID kernel.UUID,
	orderID string,
	restaurantID string,
	channel delivery.Channel,
	pickUp delivery.Stop,
	dropOff delivery.Stop,
	fees kernel.Money,
) (CreateDeliveryCommand, error) {
	var orderErr, restaurantErr error
	if strings.TrimSpace(orderID) == "" {
		orderErr = errs.NewValueIsRequiredError("orderId")
	}
	if strings.TrimSpace(restaurantID) == "" {
		restaurantErr = errs.NewValueIsRequiredError("restaurantId")
	}

	if err := errors.Join(
		deliveryID.Validate(),
		orderErr,
		restaurantErr,
		channel.Validate(),
		pickUp.Validate(),
		dropOff.Validate(),
		fees.Validate(),
	); err != nil {
		return CreateDeliveryCommand{}, err
	}

	return CreateDeliveryCommand{
		deliveryID:   deliveryID,
		orderID:      strings.TrimSpace(orderID),
		restaurantID: strings.TrimSpace(restaurantID),
		channel:      channel,
		pickUp:       pickUp,
		dropOff:      dropOff,
		fees:         fees,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c CreateDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrCreateDeliveryCommandIsNotConstructed)
}

func (c CreateDeliveryCommand) DeliveryID() kernel.UUID { return c.deliveryID }
func (c CreateDeliveryCommand) OrderID() string { return c.orderID }
func (c CreateDeliveryCommand) RestaurantID() string { return c.restaurantID }
func (c CreateDeliveryCommand) Channel() delivery.Channel { return c.channel }
func (c CreateDeliveryCommand) PickUp() delivery.Stop { return c.pickUp }
func (c CreateDeliveryCommand) DropOff() delivery.Stop { return c.dropOff }
func (c CreateDeliveryCommand) Fees() kernel.Money { return c.fees }
