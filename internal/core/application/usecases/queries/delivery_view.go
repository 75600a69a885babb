// Package queries contains read-only operations that bypass the aggregates and read the
// deliveries table directly.
package queries

import (
	"database/sql"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryView is the read model of one delivery as shown to restaurants and customers.
type DeliveryView struct {
	ID                 kernel.UUID
	OrderID            string
	RestaurantID       string
	Channel            delivery.Channel
	Provider           delivery.Provider
	ProviderIdentifier string
	Status             delivery.Status
	TrackingURL        string
	CollectionCode     string
	PickUpAddress      string
	PickUpEta          *time.Time
	DropOffAddress     string
	DropOffEta         *time.Time
	Fee                kernel.Money
	Courier            *CourierView
	Refund             *RefundView
	DispatchAttempts   int
	FailureReason      string
	DispatchedAt       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CourierView struct {
	ID         string
	Name       string
	Phone      string
	ImageURL   string
	Location   *kernel.GeoPoint
	LocationAt *time.Time
}

type RefundView struct {
	Amount    kernel.Money
	Reason    string
	CreatedAt time.Time
}

const deliveryViewColumns = `
	id,
	order_id,
	restaurant_id,
	channel,
	provider,
	provider_identifier,
	status,
	tracking_url,
	collection_code,
	pick_up_address,
	pick_up_eta_time,
	drop_off_address,
	drop_off_eta_time,
	fee_amount,
	fee_currency,
	courier_id,
	courier_name,
	courier_phone,
	courier_image_url,
	courier_latitude,
	courier_longitude,
	courier_location_at,
	refund_amount,
	refund_currency,
	refund_reason,
	refund_created_at,
	dispatch_attempts,
	failure_reason,
	dispatched_at,
	created_at,
	updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeliveryView(row rowScanner) (DeliveryView, error) {
	var (
		view                                 DeliveryView
		id                                   uuid.UUID
		channel, status, feeCurrency         string
		provider, providerIdentifier         sql.NullString
		feeAmount                            decimal.Decimal
		courierID, courierName, courierPhone sql.NullString
		courierImageURL                      sql.NullString
		latitude, longitude                  sql.NullFloat64
		locationAt                           sql.NullTime
		refundAmount                         decimal.NullDecimal
		refundCurrency, refundReason         sql.NullString
		refundCreatedAt                      sql.NullTime
		pickUpEta, dropOffEta, dispatchedAt  sql.NullTime
	)

	err := row.Scan(
		&id,
		&view.OrderID,
		&view.RestaurantID,
		&channel,
		&provider,
		&providerIdentifier,
		&status,
		&view.TrackingURL,
		&view.CollectionCode,
		&view.PickUpAddress,
		&pickUpEta,
		&view.DropOffAddress,
		&dropOffEta,
		&feeAmount,
		&feeCurrency,
		&courierID,
		&courierName,
		&courierPhone,
		&courierImageURL,
		&latitude,
		&longitude,
		&locationAt,
		&refundAmount,
		&refundCurrency,
		&refundReason,
		&refundCreatedAt,
		&view.DispatchAttempts,
		&view.FailureReason,
		&dispatchedAt,
		&view.CreatedAt,
		&view.UpdatedAt,
	)
	if err != nil {
		return DeliveryView{}, err
	}

	if view.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return DeliveryView{}, err
	}
	if view.Channel, err = delivery.ParseChannel(channel); err != nil {
		return DeliveryView{}, err
	}
	if view.Status, err = delivery.ParseStatus(status); err != nil {
		return DeliveryView{}, err
	}
	if provider.Valid {
		if view.Provider, err = delivery.ParseProvider(provider.String); err != nil {
			return DeliveryView{}, err
		}
	}
	if view.Fee, err = kernel.NewMoney(feeAmount, feeCurrency); err != nil {
		return DeliveryView{}, err
	}

	view.ProviderIdentifier = providerIdentifier.String
	view.PickUpEta = timePtr(pickUpEta)
	view.DropOffEta = timePtr(dropOffEta)
	view.DispatchedAt = timePtr(dispatchedAt)

	if courierID.Valid {
		view.Courier = &CourierView{
			ID:         courierID.String,
			Name:       courierName.String,
			Phone:      courierPhone.String,
			ImageURL:   courierImageURL.String,
			LocationAt: timePtr(locationAt),
		}
		if latitude.Valid && longitude.Valid {
			point, pointErr := kernel.NewGeoPoint(latitude.Float64, longitude.Float64)
			if pointErr != nil {
				return DeliveryView{}, pointErr
			}
			view.Courier.Location = &point
		}
	}

	if refundAmount.Valid {
		amount, moneyErr := kernel.NewMoney(refundAmount.Decimal, refundCurrency.String)
		if moneyErr != nil {
			return DeliveryView{}, moneyErr
		}
		view.Refund = &RefundView{Amount: amount, Reason: refundReason.String, CreatedAt: refundCreatedAt.Time}
	}

	return view, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
