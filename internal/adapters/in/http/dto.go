package http

import (
	"errors"
	"time"

	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/application/usecases/queries"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
)

type RestaurantSettingsRequest struct {
	DefaultProvider  string   `json:"defaultProvider"`
	EnabledProviders []string `json:"enabledProviders"`
}

type StopRequest struct {
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	Note         string     `json:"note"`
	ReadyTime    *time.Time `json:"readyTime"`
	EtaTime      *time.Time `json:"etaTime"`
	DeadlineTime *time.Time `json:"deadlineTime"`
}

type MoneyRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CreateDeliveryRequest struct {
	OrderID      string       `json:"orderId"`
	RestaurantID string       `json:"restaurantId"`
	Channel      string       `json:"channel"`
	PickUp       StopRequest  `json:"pickUp"`
	DropOff      StopRequest  `json:"dropOff"`
	Fees         MoneyRequest `json:"fees"`
}

type AssignProviderRequest struct {
	Provider           string `json:"provider"`
	ProviderIdentifier string `json:"providerIdentifier"`
}

type CancelDeliveryRequest struct {
	Reason string `json:"reason"`
}

type CourierLocationRequest struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recordedAt"`
}

type RefundRequest struct {
	Amount MoneyRequest `json:"amount"`
	Reason string       `json:"reason"`
}

type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type CreateDeliveryResponse struct {
	ID         string         `json:"id"`
	Provider   string         `json:"provider,omitempty"`
	QuotedFee  *MoneyResponse `json:"quotedFee,omitempty"`
	DropOffEta *time.Time     `json:"dropOffEta,omitempty"`
}

type DispatchResponse struct {
	Outcome string `json:"outcome"`
}

type CourierLocationResponse struct {
	Applied bool `json:"applied"`
}

type WebhookResponse struct {
	Outcome string `json:"outcome"`
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CourierResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone,omitempty"`
	ImageURL   string            `json:"imageUrl,omitempty"`
	Location   *LocationResponse `json:"location,omitempty"`
	LocationAt *time.Time        `json:"locationAt,omitempty"`
}

type RefundResponse struct {
	Amount    MoneyResponse `json:"amount"`
	Reason    string        `json:"reason"`
	CreatedAt time.Time     `json:"createdAt"`
}

type DeliveryResponse struct {
	ID                 string           `json:"id"`
	OrderID            string           `json:"orderId"`
	RestaurantID       string           `json:"restaurantId"`
	Channel            string           `json:"channel"`
	Provider           string           `json:"provider,omitempty"`
	ProviderIdentifier string           `json:"providerIdentifier,omitempty"`
	Status             string           `json:"status"`
	TrackingURL        string           `json:"trackingUrl,omitempty"`
	CollectionCode     string           `json:"collectionCode,omitempty"`
	PickUpAddress      string           `json:"pickUpAddress"`
	PickUpEta          *time.Time       `json:"pickUpEta,omitempty"`
	DropOffAddress     string           `json:"dropOffAddress"`
	DropOffEta         *time.Time       `json:"dropOffEta,omitempty"`
	Fee                MoneyResponse    `json:"fee"`
	Courier            *CourierResponse `json:"courier,omitempty"`
	Refund             *RefundResponse  `json:"refund,omitempty"`
	DispatchAttempts   int              `json:"dispatchAttempts"`
	FailureReason      string           `json:"failureReason,omitempty"`
	DispatchedAt       *time.Time       `json:"dispatchedAt,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func (r StopRequest) toStop(prefix string) (delivery.Stop, error) {
	return delivery.NewStop(prefix, r.Name, r.Phone, r.Address, r.Note, delivery.StopWindow{
		ReadyTime:    r.ReadyTime,
		EtaTime:      r.EtaTime,
		DeadlineTime: r.DeadlineTime,
	})
}

func (r MoneyRequest) toMoney() (kernel.Money, error) {
	return kernel.MoneyFromString(r.Amount, r.Currency)
}

func (r CreateDeliveryRequest) toCommand(id kernel.UUID) (commands.CreateDeliveryCommand, error) {
	channel, channelErr := delivery.ParseChannel(r.Channel)
	pickUp, pickUpErr := r.PickUp.toStop("pickUp")
	dropOff, dropOffErr := r.DropOff.toStop("dropOff")
	fees, feesErr := r.Fees.toMoney()
	if err := errors.Join(channelErr, pickUpErr, dropOffErr, feesErr); err != nil {
		return commands.CreateDeliveryCommand{}, err
	}
	return commands.NewCreateDeliveryCommand(id, r.OrderID, r.RestaurantID, channel, pickUp, dropOff, fees)
}

func (r RestaurantSettingsRequest) toCommand(restaurantID string) (commands.ConfigureRestaurantCommand, error) {
	var defaultProvider delivery.Provider
	var errList []error
	if r.DefaultProvider != "" {
		p, err := delivery.ParseProvider(r.DefaultProvider)
		errList = append(errList, err)
		defaultProvider = p
	}

	enabled := make([]delivery.Provider, 0, len(r.EnabledProviders))
	for _, name := range r.EnabledProviders {
		p, err := delivery.ParseProvider(name)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		enabled = append(enabled, p)
	}

	if err := errors.Join(errList...); err != nil {
		return commands.ConfigureRestaurantCommand{}, err
	}
	return commands.NewConfigureRestaurantCommand(restaurantID, defaultProvider, enabled)
}

func toMoneyResponse(m kernel.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount().StringFixed(2), Currency: m.Currency()}
}

func toDeliveryResponse(v queries.DeliveryView) DeliveryResponse {
	resp := DeliveryResponse{
		ID:                 v.ID.String(),
		OrderID:            v.OrderID,
		RestaurantID:       v.RestaurantID,
		Channel:            string(v.Channel),
		Provider:           string(v.Provider),
		ProviderIdentifier: v.ProviderIdentifier,
		Status:             v.Status.String(),
		TrackingURL:        v.TrackingURL,
		CollectionCode:     v.CollectionCode,
		PickUpAddress:      v.PickUpAddress,
		PickUpEta:          v.PickUpEta,
		DropOffAddress:     v.DropOffAddress,
		DropOffEta:         v.DropOffEta,
		Fee:                toMoneyResponse(v.Fee),
		DispatchAttempts:   v.DispatchAttempts,
		FailureReason:      v.FailureReason,
		DispatchedAt:       v.DispatchedAt,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}

	if c := v.Courier; c != nil {
		resp.Courier = &CourierResponse{
			ID:         c.ID,
			Name:       c.Name,
			Phone:      c.Phone,
			ImageURL:   c.ImageURL,
			LocationAt: c.LocationAt,
		}
		if c.Location != nil {
			resp.Courier.Location = &LocationResponse{
				Latitude:  c.Location.Latitude(),
				Longitude: c.Location.Longitude(),
			}
		}
	}

	if r := v.Refund; r != nil {
		resp.Refund = &RefundResponse{
			Amount:    toMoneyResponse(r.Amount),
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		}
	}

	return resp
}
