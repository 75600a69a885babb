// Package commands contains business operations that modify delivery state.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"deliveryhub/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// DeliveryRepoFactory provides access to the delivery repository within a transaction.
	DeliveryRepoFactory interface {
		DeliveryRepository() ports.DeliveryRepository
	}

	// SettingsRepoFactory provides access to the restaurant settings repository within a transaction.
	SettingsRepoFactory interface {
		RestaurantSettingsRepository() ports.RestaurantSettingsRepository
	}

	// DeliveryUoW manages transactions for delivery-only operations.
	DeliveryUoW interface {
		TxManager
		DeliveryRepoFactory
	}

	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}

	// SettingsUoW manages transactions for restaurant configuration.
	SettingsUoW interface {
		TxManager
		SettingsRepoFactory
	}

	SettingsUoWFactory interface {
		Create() SettingsUoW
	}

	// UoW spans deliveries and restaurant settings.
	//
	// Example:
	//   uow := factory.Create()
	//   settings, err := uow.RestaurantSettingsRepository().Get(ctx, restaurantID)
	//   err = uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   err = uow.DeliveryRepository().Add(ctx, d)
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		DeliveryRepoFactory
		SettingsRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
