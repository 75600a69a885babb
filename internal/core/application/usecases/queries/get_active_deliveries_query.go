package queries

import (
	"errors"
	"strings"

	"deliveryhub/internal/pkg/guard"
)

var (
	ErrGetActiveDeliveriesQueryIsNotConstructed = errors.New(
		"GetActiveDeliveriesQuery must be created via NewGetActiveDeliveriesQuery constructor",
	)
)

// GetActiveDeliveriesQuery lists deliveries that have not reached a terminal status,
// optionally restricted to one restaurant.
type GetActiveDeliveriesQuery struct {
	restaurantID string
	guard        guard.ConstructorGuard
}

// NewGetActiveDeliveriesQuery creates the query; an empty restaurantID lists every restaurant.
func NewGetActiveDeliveriesQuery(restaurantID string) GetActiveDeliveriesQuery {
	return GetActiveDeliveriesQuery{restaurantID: strings.TrimSpace(restaurantID), guard: guard.NewConstructorGuard()}
}

func (q GetActiveDeliveriesQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveDeliveriesQueryIsNotConstructed)
}

func (q GetActiveDeliveriesQuery) RestaurantID() string {
	return q.restaurantID
}
