package delivery

import (
	"errors"
	"fmt"

	"deliveryhub/internal/pkg/errs"
)

// TransitionPolicy tunes the transition engine for one provider.
type TransitionPolicy struct {
	// AllowSkip lets a request jump forward over intermediate statuses,
	// e.g. pickup -> delivered, for providers that do not emit every event.
	AllowSkip bool

	// implicit holds forward statuses the provider never emits, one bit per rank.
	// Jumping over them is still a single step.
	implicit uint16
}

// StrictPolicy accepts only single forward steps and the cancel/return branches.
var StrictPolicy = TransitionPolicy{}

// WithImplicit returns a copy of the policy that treats the given forward statuses as
// implicit. Cancelled, Returned and unknown statuses are rejected.
func (p TransitionPolicy) WithImplicit(statuses ...Status) (TransitionPolicy, error) {
	for _, s := range statuses {
		r := s.rank()
		if r <= Pending.rank() || r >= Delivered.rank() {
			return TransitionPolicy{}, errs.NewValueIsInvalidErrorWithCause("implicit status",
				fmt.Errorf("%q is not an intermediate forward status", string(s)))
		}
		p.implicit |= 1 << r
	}
	return p, nil
}

// IsImplicit reports whether the policy treats s as a status the provider never emits.
func (p TransitionPolicy) IsImplicit(s Status) bool {
	r := s.rank()
	return r >= 0 && p.implicit&(1<<r) != 0
}

// skipsExplicit reports whether moving forward from current to requested passes over a
// status that is not implicit.
func (p TransitionPolicy) skipsExplicit(current, requested Status) bool {
	for r := current.rank() + 1; r < requested.rank(); r++ {
		if !p.IsImplicit(forwardChain[r]) {
			return true
		}
	}
	return false
}

// Transition validates moving from current to requested and returns the resulting status.
//
// Rules:
//   - terminal statuses reject every request with TerminalStateError
//   - any non-terminal status may move to Cancelled
//   - pickup .. dropoff_imminent may move to Returned
//   - otherwise the request must be the next status on the forward chain, where statuses
//     the policy marks implicit do not count, or any later forward status when
//     policy.AllowSkip is set
//
// Every other request, including re-applying the current status, fails with
// InvalidTransitionError.
func Transition(current, requested Status, policy TransitionPolicy) (Status, error) {
	if err := errors.Join(current.Validate(), requested.Validate()); err != nil {
		return "", err
	}

	if current.IsTerminal() {
		return "", errs.NewTerminalStateError(current.String(), requested.String())
	}

	switch requested {
	case Cancelled:
		return Cancelled, nil
	case Returned:
		if current.IsInProgress() {
			return Returned, nil
		}
		return "", errs.NewInvalidTransitionError(current.String(), requested.String())
	}

	step := requested.rank() - current.rank()
	if step >= 1 && (policy.AllowSkip || !policy.skipsExplicit(current, requested)) {
		return requested, nil
	}

	return "", errs.NewInvalidTransitionError(current.String(), requested.String())
}

// CanTransition reports whether Transition would succeed.
func CanTransition(current, requested Status, policy TransitionPolicy) bool {
	_, err := Transition(current, requested, policy)
	return err == nil
}

// SkipTolerance holds the transition policy configured for each provider.
// Providers without an entry use StrictPolicy.
type SkipTolerance struct {
	policies map[Provider]TransitionPolicy
}

// NewSkipTolerance enables AllowSkip for the given providers.
func NewSkipTolerance(skipping ...Provider) (SkipTolerance, error) {
	policies := make(map[Provider]TransitionPolicy, len(skipping))
	for _, p := range skipping {
		if err := p.Validate(); err != nil {
			return SkipTolerance{}, err
		}
		policies[p] = TransitionPolicy{AllowSkip: true}
	}
	return SkipTolerance{policies: policies}, nil
}

// WithImplicit returns a copy of t in which p's policy treats the given statuses as
// implicit, keeping whatever skip setting p already had.
func (t SkipTolerance) WithImplicit(p Provider, statuses ...Status) (SkipTolerance, error) {
	if err := p.Validate(); err != nil {
		return SkipTolerance{}, err
	}
	policy, err := t.PolicyFor(p).WithImplicit(statuses...)
	if err != nil {
		return SkipTolerance{}, err
	}

	policies := make(map[Provider]TransitionPolicy, len(t.policies)+1)
	for provider, existing := range t.policies {
		policies[provider] = existing
	}
	policies[p] = policy
	return SkipTolerance{policies: policies}, nil
}

// PolicyFor returns the policy configured for p.
func (t SkipTolerance) PolicyFor(p Provider) TransitionPolicy {
	if policy, ok := t.policies[p]; ok {
		return policy
	}
	return StrictPolicy
}
