package commands

import (
	"errors"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/pkg/guard"
)

var ErrConfigureRestaurantCommandIsNotConstructed = errors.New(
	"ConfigureRestaurantCommand must be created via NewConfigureRestaurantCommand constructor",
)

// ConfigureRestaurantCommand sets the default provider used for native-channel orders and
// the providers the restaurant may choose for third-party-channel orders.
type ConfigureRestaurantCommand struct {
	settings restaurant.Settings
	guard    guard.ConstructorGuard
}

func NewConfigureRestaurantCommand(
	restaurantID string,
	defaultProvider delivery.Provider,
	enabledProviders []delivery.Provider,
) (ConfigureRestaurantCommand, error) {
	settings, err := restaurant.NewSettings(restaurantID, defaultProvider, enabledProviders)
	if err != nil {
		return ConfigureRestaurantCommand{}, err
	}

	return ConfigureRestaurantCommand{settings: settings, guard: guard.NewConstructorGuard()}, nil
}

func (c ConfigureRestaurantCommand) Validate() error {
	return c.guard.Validate(ErrConfigureRestaurantCommandIsNotConstructed)
}

func (c ConfigureRestaurantCommand) Settings() restaurant.Settings {
	return c.settings
}
