package queries

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var (
	ErrGetDeliveryQueryIsNotConstructed = errors.New(
		"GetDeliveryQuery must be created via NewGetDeliveryQuery or NewGetDeliveryByOrderQuery constructor",
	)
)

// GetDeliveryQuery looks up one delivery either by its id or by the order it belongs to.
//
// Example:
//
//	query, err := NewGetDeliveryByOrderQuery("order_1")
//	if err != nil {
//	    return err
//	}
//	view, err := handler.Handle(ctx, query)
type GetDeliveryQuery struct {
	deliveryID kernel.UUID
	orderID    string
	guard      guard.ConstructorGuard
}

func NewGetDeliveryQuery(deliveryID kernel.UUID) (GetDeliveryQuery, error) {
	if err := deliveryID.Validate(); err != nil {
		return GetDeliveryQuery{}, err
	}
	return GetDeliveryQuery{deliveryID: deliveryID, guard: guard.NewConstructorGuard()}, nil
}

func NewGetDeliveryByOrderQuery(orderID string) (GetDeliveryQuery, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return GetDeliveryQuery{}, errs.NewValueIsRequiredError("orderId")
	}
	return GetDeliveryQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDeliveryQuery) Validate() error {
	return q.guard.Validate(ErrGetDeliveryQueryIsNotConstructed)
}

// ByOrder reports whether the query looks up by order id.
func (q GetDeliveryQuery) ByOrder() bool { return q.orderID != "" }

func (q GetDeliveryQuery) DeliveryID() kernel.UUID { return q.deliveryID }
func (q GetDeliveryQuery) OrderID() string { return q.orderID }
