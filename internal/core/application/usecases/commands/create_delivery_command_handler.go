package commands

import (
	"context"
	"errors"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/core/domain/services"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

// CreateDeliveryResult reports the created delivery and, for native orders, the
// provider's customer-facing estimate.
type CreateDeliveryResult struct {
	DeliveryID kernel.UUID
	Provider   delivery.Provider
	Quote      *ports.Quote
}

// CreateDeliveryCommandHandler creates deliveries, resolving the provider for
// native-channel orders before anything is persisted.
type CreateDeliveryCommandHandler struct {
	uowFactory UoWFactory
	resolver   services.AssignmentResolver
}

func NewCreateDeliveryCommandHandler(
	uowFactory UoWFactory,
	resolver services.AssignmentResolver,
) CreateDeliveryCommandHandler {
	return CreateDeliveryCommandHandler{uowFactory: uowFactory, resolver: resolver}
}

// Handle creates the delivery.
//
// Returns ObjectAlreadyExistsError when the order already has a delivery, and
// NoDefaultProviderConfiguredError or ProviderUnavailableError when a native-channel
// order cannot be assigned. Nothing is persisted in those cases.
func (h CreateDeliveryCommandHandler) Handle(
	ctx context.Context,
	command CreateDeliveryCommand,
) (CreateDeliveryResult, error) {
	if err := command.Validate(); err != nil {
		return CreateDeliveryResult{}, err
	}

	uow := h.uowFactory.Create()

	if err := h.ensureNoDelivery(ctx, uow.DeliveryRepository(), command.OrderID()); err != nil {
		return CreateDeliveryResult{}, err
	}

	provider := delivery.ProviderUnset
	fees := command.Fees()
	var quote *ports.Quote

	// Resolution talks to the provider, so it happens before the transaction is opened.
	if command.Channel() == delivery.ChannelNative {
		settings, err := loadSettings(ctx, uow.RestaurantSettingsRepository(), command.RestaurantID())
		if err != nil {
			return CreateDeliveryResult{}, err
		}

		req := ports.NewAvailabilityRequest(command.RestaurantID(), command.PickUp(), command.DropOff())
		assignment, err := h.resolver.ResolveNative(ctx, settings, req)
		if err != nil {
			return CreateDeliveryResult{}, err
		}

		provider = assignment.Provider
		quote = assignment.Quote
		if quote != nil && quote.Fee.Validate() == nil {
			fees = quote.Fee
		}
	}

	d, err := delivery.NewDelivery(
		command.DeliveryID(),
		command.OrderID(),
		command.RestaurantID(),
		command.Channel(),
		command.PickUp(),
		command.DropOff(),
		fees,
		provider,
	)
	if err != nil {
		return CreateDeliveryResult{}, err
	}

	if err = uow.Begin(ctx); err != nil {
		return CreateDeliveryResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.DeliveryRepository().Add(ctx, d); err != nil {
		return CreateDeliveryResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateDeliveryResult{}, err
	}

	return CreateDeliveryResult{DeliveryID: d.ID(), Provider: provider, Quote: quote}, nil
}

func (h CreateDeliveryCommandHandler) ensureNoDelivery(
	ctx context.Context,
	repo ports.DeliveryRepository,
	orderID string,
) error {
	_, err := repo.GetByOrderID(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return errs.NewObjectAlreadyExistsError("delivery for order", orderID)
}

// loadSettings treats a restaurant that never saved settings as unconfigured.
func loadSettings(
	ctx context.Context,
	repo ports.RestaurantSettingsRepository,
	restaurantID string,
) (restaurant.Settings, error) {
	settings, err := repo.Get(ctx, restaurantID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return restaurant.Unconfigured(restaurantID)
	}
	return settings, err
}
