package commands

import (
	"context"
)

// ConfigureRestaurantCommandHandler stores restaurant delivery settings.
type ConfigureRestaurantCommandHandler struct {
	uowFactory SettingsUoWFactory
}

func NewConfigureRestaurantCommandHandler(uowFactory SettingsUoWFactory) ConfigureRestaurantCommandHandler {
	return ConfigureRestaurantCommandHandler{uowFactory: uowFactory}
}

func (h ConfigureRestaurantCommandHandler) Handle(ctx context.Context, command ConfigureRestaurantCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.RestaurantSettingsRepository().Save(ctx, command.Settings()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
