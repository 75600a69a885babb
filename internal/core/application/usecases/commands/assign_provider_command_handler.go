package commands

import (
	"context"

	"deliveryhub/internal/core/domain/services"
	"deliveryhub/internal/core/ports"
)

// AssignProviderCommandHandler validates the restaurant's choice against its settings and
// the provider's availability, then binds the delivery.
type AssignProviderCommandHandler struct {
	uowFactory UoWFactory
	resolver   services.AssignmentResolver
}

func NewAssignProviderCommandHandler(
	uowFactory UoWFactory,
	resolver services.AssignmentResolver,
) AssignProviderCommandHandler {
	return AssignProviderCommandHandler{uowFactory: uowFactory, resolver: resolver}
}

func (h AssignProviderCommandHandler) Handle(ctx context.Context, command AssignProviderCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()

	current, err := uow.DeliveryRepository().Get(ctx, command.DeliveryID())
	if err != nil {
		return err
	}

	settings, err := loadSettings(ctx, uow.RestaurantSettingsRepository(), current.RestaurantID())
	if err != nil {
		return err
	}

	req := ports.NewAvailabilityRequest(current.RestaurantID(), current.PickUp(), current.DropOff())
	assignment, err := h.resolver.ResolveThirdParty(ctx, settings, command.Provider(), req)
	if err != nil {
		return err
	}

	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()

	// Reload under lock; the delivery may have moved on while the provider was queried.
	d, err := repo.Get(ctx, command.DeliveryID())
	if err != nil {
		return err
	}

	if err = d.AssignProvider(assignment.Provider, command.ProviderIdentifier()); err != nil {
		return err
	}

	if err = repo.Update(ctx, d); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
