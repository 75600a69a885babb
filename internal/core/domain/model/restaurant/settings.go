package restaurant

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var ErrSettingsIsNotConstructed = errs.NewValueIsRequiredError("settings must be created via NewSettings")

// Settings is the delivery configuration of one restaurant.
//
// defaultProvider, when set, is used for native-channel orders and must be one of the
// enabled providers. An empty enabled list means every supported provider is allowed.
type Settings struct {
	restaurantID     string
	defaultProvider  delivery.Provider
	enabledProviders []delivery.Provider
	guard            guard.ConstructorGuard
}

func NewSettings(restaurantID string, defaultProvider delivery.Provider, enabled []delivery.Provider) (Settings, error) {
	var validationErrs []error

	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		validationErrs = append(validationErrs, errs.NewValueIsRequiredError("restaurantId"))
	}

	unique := make([]delivery.Provider, 0, len(enabled))
	for _, p := range enabled {
		if err := p.Validate(); err != nil {
			validationErrs = append(validationErrs, err)
			continue
		}
		if !slices.Contains(unique, p) {
			unique = append(unique, p)
		}
	}

	if defaultProvider != delivery.ProviderUnset {
		if err := defaultProvider.Validate(); err != nil {
			validationErrs = append(validationErrs, err)
		} else if len(unique) > 0 && !slices.Contains(unique, defaultProvider) {
			validationErrs = append(validationErrs, errs.NewValueIsInvalidErrorWithCause("defaultProvider",
				fmt.Errorf("%s is not among the enabled providers", defaultProvider)))
		}
	}

	if len(validationErrs) > 0 {
		return Settings{}, errors.Join(validationErrs...)
	}

	return Settings{
		restaurantID:     restaurantID,
		defaultProvider:  defaultProvider,
		enabledProviders: unique,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

// Unconfigured returns settings for a restaurant that never saved any: no default provider
// and every provider enabled.
func Unconfigured(restaurantID string) (Settings, error) {
	return NewSettings(restaurantID, delivery.ProviderUnset, nil)
}

func (s Settings) Validate() error {
	return s.guard.Validate(ErrSettingsIsNotConstructed)
}

func (s Settings) RestaurantID() string { return s.restaurantID }

func (s Settings) DefaultProvider() delivery.Provider { return s.defaultProvider }

func (s Settings) HasDefaultProvider() bool { return s.defaultProvider != delivery.ProviderUnset }

// EnabledProviders returns the explicit allow-list; empty means all providers.
func (s Settings) EnabledProviders() []delivery.Provider {
	return slices.Clone(s.enabledProviders)
}

// IsEnabled reports whether the restaurant may use p.
func (s Settings) IsEnabled(p delivery.Provider) bool {
	if p.Validate() != nil {
		return false
	}
	return len(s.enabledProviders) == 0 || slices.Contains(s.enabledProviders, p)
}
