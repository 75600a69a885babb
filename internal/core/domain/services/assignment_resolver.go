package services

import (
	"context"
	"errors"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

// Assignment is the outcome of resolving a provider for a delivery.
type Assignment struct {
	Provider delivery.Provider
	// Quote is the customer-facing estimate; set only for native-channel assignments.
	Quote *ports.Quote
}

// AssignmentResolver binds deliveries to providers.
//
// Restaurant settings are passed in on every call rather than read from shared state,
// so resolution depends only on its arguments and the providers' answers.
//
// Example usage:
//
//	resolver := services.NewAssignmentResolver(registry)
//	assignment, err := resolver.ResolveNative(ctx, settings, ports.NewAvailabilityRequest(restaurantID, pickUp, dropOff))
//	if errors.Is(err, errs.ErrNoDefaultProviderConfigured) {
//	    // ask the restaurant to pick a default provider
//	}
type AssignmentResolver struct {
	registry ports.ProviderRegistry
}

func NewAssignmentResolver(registry ports.ProviderRegistry) AssignmentResolver {
	return AssignmentResolver{registry: registry}
}

// ResolveNative assigns the restaurant's default provider and fetches its quote.
//
// Returns:
//   - NoDefaultProviderConfiguredError when the restaurant has no default provider
//   - ProviderUnavailableError when the provider has no adapter, reports it cannot take
//     the delivery, or cannot quote it
func (r AssignmentResolver) ResolveNative(
	ctx context.Context,
	settings restaurant.Settings,
	req ports.AvailabilityRequest,
) (Assignment, error) {
	if err := settings.Validate(); err != nil {
		return Assignment{}, err
	}
	if !settings.HasDefaultProvider() {
		return Assignment{}, errs.NewNoDefaultProviderConfiguredError(settings.RestaurantID())
	}

	provider := settings.DefaultProvider()
	adapter, err := r.availableAdapter(ctx, provider, req)
	if err != nil {
		return Assignment{}, err
	}

	quote, err := adapter.Quote(ctx, req)
	if err != nil {
		return Assignment{}, errs.NewProviderUnavailableErrorWithCause(provider.String(), "quote failed", err)
	}

	return Assignment{Provider: provider, Quote: &quote}, nil
}

// ResolveThirdParty validates the restaurant's explicit choice for a third-party-channel order.
func (r AssignmentResolver) ResolveThirdParty(
	ctx context.Context,
	settings restaurant.Settings,
	chosen delivery.Provider,
	req ports.AvailabilityRequest,
) (Assignment, error) {
	if err := errors.Join(settings.Validate(), chosen.Validate()); err != nil {
		return Assignment{}, err
	}
	if !settings.IsEnabled(chosen) {
		return Assignment{}, errs.NewProviderUnavailableError(chosen.String(), "not enabled for restaurant")
	}

	if _, err := r.availableAdapter(ctx, chosen, req); err != nil {
		return Assignment{}, err
	}

	return Assignment{Provider: chosen}, nil
}

func (r AssignmentResolver) availableAdapter(
	ctx context.Context,
	provider delivery.Provider,
	req ports.AvailabilityRequest,
) (ports.ProviderAdapter, error) {
	adapter, err := r.registry.Adapter(provider)
	if err != nil {
		return nil, errs.NewProviderUnavailableErrorWithCause(provider.String(), "no adapter registered", err)
	}

	availability, err := adapter.CheckAvailability(ctx, req)
	if err != nil {
		return nil, errs.NewProviderUnavailableErrorWithCause(provider.String(), "availability check failed", err)
	}
	if !availability.Available {
		reason := availability.Reason
		if reason == "" {
			reason = "not accepting deliveries"
		}
		return nil, errs.NewProviderUnavailableError(provider.String(), reason)
	}

	return adapter, nil
}
