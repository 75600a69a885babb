package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Domain events of aggregates written through its repositories are published after a
// successful Commit and discarded on Rollback.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// DeliveryRepository returns a repository bound to the current transaction.
	DeliveryRepository() DeliveryRepository

	// RestaurantSettingsRepository returns a repository bound to the current transaction.
	RestaurantSettingsRepository() RestaurantSettingsRepository
}
