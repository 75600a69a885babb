package ports

import (
	"context"

	"deliveryhub/internal/core/domain/model/restaurant"
)

// RestaurantSettingsRepository stores per-restaurant delivery configuration.
type RestaurantSettingsRepository interface {
	// Get returns the saved settings; errs.ObjectNotFoundError when the restaurant has none.
	Get(ctx context.Context, restaurantID string) (restaurant.Settings, error)

	// Save inserts or replaces the settings of a restaurant.
	Save(ctx context.Context, settings restaurant.Settings) error
}
