package queries

import (
	"context"
	"database/sql"
	"errors"

	"deliveryhub/internal/pkg/errs"

	"gorm.io/gorm"
)

type GetDeliveryQueryHandler struct {
	db *gorm.DB
}

func NewGetDeliveryQueryHandler(db *gorm.DB) GetDeliveryQueryHandler {
	return GetDeliveryQueryHandler{db: db}
}

// Handle returns the delivery view or ObjectNotFoundError.
func (h GetDeliveryQueryHandler) Handle(ctx context.Context, query GetDeliveryQuery) (DeliveryView, error) {
	if err := query.Validate(); err != nil {
		return DeliveryView{}, err
	}

	var (
		where string
		arg   any
		key   string
	)
	if query.ByOrder() {
		where, arg, key = "order_id = ?", query.OrderID(), query.OrderID()
	} else {
		where, arg, key = "id = ?", query.DeliveryID().Bytes(), query.DeliveryID().String()
	}

	row := h.db.WithContext(ctx).Raw(`SELECT`+deliveryViewColumns+`
		FROM deliveries
		WHERE `+where, arg).Row()
	if err := row.Err(); err != nil {
		return DeliveryView{}, err
	}

	view, err := scanDeliveryView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return DeliveryView{}, errs.NewObjectNotFoundError("delivery", key)
	}
	if err != nil {
		return DeliveryView{}, err
	}

	return view, nil
}
