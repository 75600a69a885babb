package queries

import (
	"context"

	"deliveryhub/internal/core/domain/model/delivery"

	"gorm.io/gorm"
)

type GetActiveDeliveriesQueryHandler struct {
	db *gorm.DB
}

func NewGetActiveDeliveriesQueryHandler(db *gorm.DB) GetActiveDeliveriesQueryHandler {
	return GetActiveDeliveriesQueryHandler{db: db}
}

// Handle returns active deliveries, oldest first.
func (h GetActiveDeliveriesQueryHandler) Handle(
	ctx context.Context,
	query GetActiveDeliveriesQuery,
) ([]DeliveryView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var terminal []string
	for _, s := range delivery.Statuses() {
		if s.IsTerminal() {
			terminal = append(terminal, s.String())
		}
	}

	sqlQuery := `SELECT` + deliveryViewColumns + `
		FROM deliveries
		WHERE status NOT IN ?`
	args := []any{terminal}
	if query.RestaurantID() != "" {
		sqlQuery += ` AND restaurant_id = ?`
		args = append(args, query.RestaurantID())
	}
	sqlQuery += ` ORDER BY created_at, id`

	rows, err := h.db.WithContext(ctx).Raw(sqlQuery, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]DeliveryView, 0)
	for rows.Next() {
		view, scanErr := scanDeliveryView(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		views = append(views, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return views, nil
}
