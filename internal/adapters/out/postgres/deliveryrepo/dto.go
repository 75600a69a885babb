// Package deliveryrepo maps delivery aggregates to the deliveries table.
// Stops, courier and refund are embedded value objects, so one row holds the whole aggregate.
package deliveryrepo

import (
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryDTO represents the database structure for persisting delivery aggregates.
type DeliveryDTO struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID            string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	RestaurantID       string          `gorm:"type:varchar(64);not null;index"`
	Channel            string          `gorm:"type:varchar(16);not null"`
	Provider           *string         `gorm:"type:varchar(32);index:idx_deliveries_provider_identifier,priority:1"`
	ProviderIdentifier *string         `gorm:"type:varchar(128);index:idx_deliveries_provider_identifier,priority:2"`
	TrackingURL        string          `gorm:"type:text"`
	CollectionCode     string          `gorm:"type:varchar(32)"`
	Status             string          `gorm:"type:varchar(32);not null;index"`
	PickUp             StopDTO         `gorm:"embedded;embeddedPrefix:pick_up_"`
	DropOff            StopDTO         `gorm:"embedded;embeddedPrefix:drop_off_"`
	FeeAmount          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	FeeCurrency        string          `gorm:"type:char(3);not null"`
	Courier            CourierDTO      `gorm:"embedded;embeddedPrefix:courier_"`
	Refund             RefundDTO       `gorm:"embedded;embeddedPrefix:refund_"`
	DispatchAttempts   int             `gorm:"type:int;not null;default:0"`
	LastDispatchError  string          `gorm:"type:text"`
	FailureReason      string          `gorm:"type:text"`
	DispatchedAt       *time.Time      `gorm:"type:timestamptz"`
	LastEventAt        *time.Time      `gorm:"type:timestamptz"`
	CreatedAt          time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt          time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

// TableName overrides GORM's default "delivery_dtos".
func (DeliveryDTO) TableName() string {
	return "deliveries"
}

// StopDTO stores one end of the delivery.
type StopDTO struct {
	Name         string     `gorm:"type:varchar(255)"`
	Phone        string     `gorm:"type:varchar(32)"`
	Address      string     `gorm:"type:text;not null"`
	Note         string     `gorm:"type:text"`
	ReadyTime    *time.Time `gorm:"type:timestamptz"`
	EtaTime      *time.Time `gorm:"type:timestamptz"`
	DeadlineTime *time.Time `gorm:"type:timestamptz"`
}

// CourierDTO stores the courier reported by the provider; all columns are NULL until one
// is assigned.
type CourierDTO struct {
	ID         *string    `gorm:"type:varchar(128)"`
	Name       *string    `gorm:"type:varchar(255)"`
	Phone      *string    `gorm:"type:varchar(32)"`
	ImageURL   *string    `gorm:"type:text"`
	Latitude   *float64   `gorm:"type:double precision"`
	Longitude  *float64   `gorm:"type:double precision"`
	LocationAt *time.Time `gorm:"type:timestamptz"`
}

type RefundDTO struct {
	Amount    decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Currency  *string             `gorm:"type:char(3)"`
	Reason    *string             `gorm:"type:text"`
	CreatedAt *time.Time          `gorm:"type:timestamptz"`
}

func fromDomain(d *delivery.Delivery) DeliveryDTO {
	s := d.Snapshot()

	dto := DeliveryDTO{
		ID:                s.ID.Bytes(),
		OrderID:           s.OrderID,
		RestaurantID:      s.RestaurantID,
		Channel:           string(s.Channel),
		TrackingURL:       s.TrackingURL,
		CollectionCode:    s.CollectionCode,
		Status:            s.Status.String(),
		PickUp:            stopFromDomain(s.PickUp),
		DropOff:           stopFromDomain(s.DropOff),
		FeeAmount:         s.Fees.Amount(),
		FeeCurrency:       s.Fees.Currency(),
		DispatchAttempts:  s.DispatchAttempts,
		LastDispatchError: s.LastDispatchError,
		FailureReason:     s.FailureReason,
		DispatchedAt:      s.DispatchedAt,
		LastEventAt:       s.LastEventAt,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}

	if s.Provider != delivery.ProviderUnset {
		provider := string(s.Provider)
		dto.Provider = &provider
	}
	if s.ProviderIdentifier != "" {
		identifier := s.ProviderIdentifier
		dto.ProviderIdentifier = &identifier
	}

	if c := s.Courier; c != nil {
		id, name, phone, imageURL := c.ID(), c.Name(), c.Phone(), c.ImageURL()
		dto.Courier = CourierDTO{ID: &id, Name: &name, Phone: &phone, ImageURL: &imageURL, LocationAt: s.CourierLocationAt}
		if loc := c.Location(); loc != nil {
			lat, lon := loc.Latitude(), loc.Longitude()
			dto.Courier.Latitude = &lat
			dto.Courier.Longitude = &lon
		}
	}

	if r := s.Refund; r != nil {
		currency, reason, createdAt := r.Amount().Currency(), r.Reason(), r.CreatedAt()
		dto.Refund = RefundDTO{
			Amount:    decimal.NewNullDecimal(r.Amount().Amount()),
			Currency:  &currency,
			Reason:    &reason,
			CreatedAt: &createdAt,
		}
	}

	return dto
}

func stopFromDomain(s delivery.Stop) StopDTO {
	return StopDTO{
		Name:         s.Name(),
		Phone:        s.Phone(),
		Address:      s.Address(),
		Note:         s.Note(),
		ReadyTime:    s.ReadyTime(),
		EtaTime:      s.EtaTime(),
		DeadlineTime: s.DeadlineTime(),
	}
}

// toDomain rebuilds the aggregate through delivery.RestoreDelivery, so a corrupted row
// surfaces as a validation error instead of an inconsistent aggregate.
func toDomain(dto DeliveryDTO) (*delivery.Delivery, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	channel, err := delivery.ParseChannel(dto.Channel)
	if err != nil {
		return nil, err
	}
	status, err := delivery.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	provider := delivery.ProviderUnset
	if dto.Provider != nil {
		if provider, err = delivery.ParseProvider(*dto.Provider); err != nil {
			return nil, err
		}
	}
	pickUp, err := stopToDomain("pickUp", dto.PickUp)
	if err != nil {
		return nil, err
	}
	dropOff, err := stopToDomain("dropOff", dto.DropOff)
	if err != nil {
		return nil, err
	}
	fees, err := kernel.NewMoney(dto.FeeAmount, dto.FeeCurrency)
	if err != nil {
		return nil, err
	}
	courier, err := courierToDomain(dto.Courier)
	if err != nil {
		return nil, err
	}
	refund, err := refundToDomain(dto.Refund)
	if err != nil {
		return nil, err
	}

	return delivery.RestoreDelivery(delivery.Snapshot{
		ID:                 id,
		OrderID:            dto.OrderID,
		RestaurantID:       dto.RestaurantID,
		Channel:            channel,
		Provider:           provider,
		ProviderIdentifier: deref(dto.ProviderIdentifier),
		TrackingURL:        dto.TrackingURL,
		CollectionCode:     dto.CollectionCode,
		Status:             status,
		PickUp:             pickUp,
		DropOff:            dropOff,
		Fees:               fees,
		Courier:            courier,
		CourierLocationAt:  dto.Courier.LocationAt,
		Refund:             refund,
		DispatchAttempts:   dto.DispatchAttempts,
		LastDispatchError:  dto.LastDispatchError,
		FailureReason:      dto.FailureReason,
		DispatchedAt:       dto.DispatchedAt,
		LastEventAt:        dto.LastEventAt,
		CreatedAt:          dto.CreatedAt,
		UpdatedAt:          dto.UpdatedAt,
	})
}

func stopToDomain(prefix string, dto StopDTO) (delivery.Stop, error) {
	return delivery.NewStop(prefix, dto.Name, dto.Phone, dto.Address, dto.Note, delivery.StopWindow{
		ReadyTime:    dto.ReadyTime,
		EtaTime:      dto.EtaTime,
		DeadlineTime: dto.DeadlineTime,
	})
}

func courierToDomain(dto CourierDTO) (*delivery.Courier, error) {
	if dto.ID == nil {
		return nil, nil
	}
	c, err := delivery.NewCourier(*dto.ID, deref(dto.Name), deref(dto.Phone), deref(dto.ImageURL))
	if err != nil {
		return nil, err
	}
	if dto.Latitude != nil && dto.Longitude != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.Latitude, *dto.Longitude)
		if pointErr != nil {
			return nil, pointErr
		}
		c = c.WithLocation(point)
	}
	return &c, nil
}

func refundToDomain(dto RefundDTO) (*delivery.Refund, error) {
	if !dto.Amount.Valid {
		return nil, nil
	}
	amount, err := kernel.NewMoney(dto.Amount.Decimal, deref(dto.Currency))
	if err != nil {
		return nil, err
	}
	var createdAt time.Time
	if dto.CreatedAt != nil {
		createdAt = *dto.CreatedAt
	}
	r, err := delivery.NewRefund(amount, deref(dto.Reason), createdAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
