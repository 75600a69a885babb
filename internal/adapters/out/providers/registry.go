// Package providers holds what all provider adapters share: the registry the core looks
// adapters up in and the retrying decorator.
package providers

import (
	"fmt"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

type unwrapper interface {
	Unwrap() ports.ProviderAdapter
}

// Registry maps providers to their adapters.
type Registry struct {
	adapters map[delivery.Provider]ports.ProviderAdapter
	order    []delivery.Provider
}

// NewRegistry fails when two adapters claim the same provider.
func NewRegistry(adapters ...ports.ProviderAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[delivery.Provider]ports.ProviderAdapter, len(adapters))}
	for _, a := range adapters {
		p := a.Provider()
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.adapters[p]; ok {
			return nil, errs.NewValueIsInvalidErrorWithCause("adapters", fmt.Errorf("provider %s registered twice", p))
		}
		r.adapters[p] = a
		r.order = append(r.order, p)
	}
	return r, nil
}

func (r *Registry) Adapter(provider delivery.Provider) (ports.ProviderAdapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, errs.NewObjectNotFoundError("provider adapter", provider)
	}
	return a, nil
}

// Poller looks through decorators for an adapter that can poll.
func (r *Registry) Poller(provider delivery.Provider) (ports.StatusPoller, bool) {
	return findCapability[ports.StatusPoller](r.adapters[provider])
}

// Tolerance extends base with the implicit statuses every registered adapter declares.
func (r *Registry) Tolerance(base delivery.SkipTolerance) (delivery.SkipTolerance, error) {
	tolerance := base
	for _, p := range r.order {
		declarer, ok := findCapability[ports.ImplicitStatusDeclarer](r.adapters[p])
		if !ok {
			continue
		}
		var err error
		if tolerance, err = tolerance.WithImplicit(p, declarer.ImplicitStatuses()...); err != nil {
			return delivery.SkipTolerance{}, fmt.Errorf("implicit statuses of %s: %w", p, err)
		}
	}
	return tolerance, nil
}

// findCapability unwraps decorators until it finds an adapter implementing T.
func findCapability[T any](a ports.ProviderAdapter) (T, bool) {
	for a != nil {
		if c, ok := a.(T); ok {
			return c, true
		}
		inner, ok := a.(unwrapper)
		if !ok {
			break
		}
		a = inner.Unwrap()
	}
	var zero T
	return zero, false
}

// Providers returns registered providers in registration order.
func (r *Registry) Providers() []delivery.Provider {
	return append([]delivery.Provider(nil), r.order...)
}
