package errs

import "fmt"

// NoDefaultProviderConfiguredError is returned for a native-channel order whose restaurant
// has not selected a default delivery provider.
type NoDefaultProviderConfiguredError struct {
	RestaurantID string
}

func NewNoDefaultProviderConfiguredError(restaurantID string) *NoDefaultProviderConfiguredError {
	return &NoDefaultProviderConfiguredError{RestaurantID: restaurantID}
}

func (e *NoDefaultProviderConfiguredError) Error() string {
	return fmt.Sprintf("%s: restaurant %s", ErrNoDefaultProviderConfigured, e.RestaurantID)
}

func (e *NoDefaultProviderConfiguredError) Unwrap() error { return ErrNoDefaultProviderConfigured }

// ProviderUnavailableError is returned when a provider cannot accept new deliveries.
type ProviderUnavailableError struct {
	Provider string
	Reason   string
	Cause    error
}

func NewProviderUnavailableError(provider, reason string) *ProviderUnavailableError {
	return &ProviderUnavailableError{Provider: provider, Reason: reason}
}

func NewProviderUnavailableErrorWithCause(provider, reason string, cause error) *ProviderUnavailableError {
	return &ProviderUnavailableError{Provider: provider, Reason: reason, Cause: cause}
}

func (e *ProviderUnavailableError) Error() string {
	return withCause(fmt.Sprintf("%s: %s: %s", ErrProviderUnavailable, e.Provider, e.Reason), e.Cause)
}

func (e *ProviderUnavailableError) Unwrap() error { return ErrProviderUnavailable }
