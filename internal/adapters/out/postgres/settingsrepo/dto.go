// Package settingsrepo persists per-restaurant delivery settings.
package settingsrepo

import (
	"strings"
	"time"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/restaurant"
)

// SettingsDTO holds one restaurant's settings. EnabledProviders is a comma separated list;
// an empty list enables every provider.
type SettingsDTO struct {
	RestaurantID     string    `gorm:"type:varchar(64);primaryKey"`
	DefaultProvider  *string   `gorm:"type:varchar(32)"`
	EnabledProviders string    `gorm:"type:text;not null;default:''"`
	UpdatedAt        time.Time `gorm:"type:timestamptz;not null"`
}

func (SettingsDTO) TableName() string {
	return "restaurant_settings"
}

func fromDomain(s restaurant.Settings) SettingsDTO {
	enabled := make([]string, 0, len(s.EnabledProviders()))
	for _, p := range s.EnabledProviders() {
		enabled = append(enabled, string(p))
	}

	dto := SettingsDTO{
		RestaurantID:     s.RestaurantID(),
		EnabledProviders: strings.Join(enabled, ","),
		UpdatedAt:        time.Now().UTC(),
	}
	if s.HasDefaultProvider() {
		p := string(s.DefaultProvider())
		dto.DefaultProvider = &p
	}
	return dto
}

func toDomain(dto SettingsDTO) (restaurant.Settings, error) {
	defaultProvider := delivery.ProviderUnset
	if dto.DefaultProvider != nil {
		defaultProvider = delivery.Provider(*dto.DefaultProvider)
	}

	var enabled []delivery.Provider
	for _, name := range strings.Split(dto.EnabledProviders, ",") {
		if name = strings.TrimSpace(name); name != "" {
			enabled = append(enabled, delivery.Provider(name))
		}
	}

	return restaurant.NewSettings(dto.RestaurantID, defaultProvider, enabled)
}
