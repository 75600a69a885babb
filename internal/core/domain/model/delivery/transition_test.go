package delivery_test

import (
	"testing"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	skip := delivery.TransitionPolicy{AllowSkip: true}

	tests := []struct {
		name      string
		current   delivery.Status
		requested delivery.Status
		policy    delivery.TransitionPolicy
		want      delivery.Status
		wantErr   error
	}{
		{"forward step", delivery.Pending, delivery.Pickup, delivery.StrictPolicy, delivery.Pickup, nil},
		{"last forward step", delivery.DropoffImminent, delivery.Delivered, delivery.StrictPolicy, delivery.Delivered, nil},
		{"skip rejected under strict policy", delivery.Pickup, delivery.Delivered, delivery.StrictPolicy, "", errs.ErrInvalidTransition},
		{"skip accepted under tolerant policy", delivery.Pickup, delivery.Delivered, skip, delivery.Delivered, nil},
		{"backwards rejected", delivery.Dropoff, delivery.Pickup, skip, "", errs.ErrInvalidTransition},
		{"same status rejected", delivery.Pickup, delivery.Pickup, skip, "", errs.ErrInvalidTransition},
		{"cancel from pending", delivery.Pending, delivery.Cancelled, delivery.StrictPolicy, delivery.Cancelled, nil},
		{"cancel from dropoff", delivery.Dropoff, delivery.Cancelled, delivery.StrictPolicy, delivery.Cancelled, nil},
		{"return while in progress", delivery.PickupComplete, delivery.Returned, delivery.StrictPolicy, delivery.Returned, nil},
		{"return from pending rejected", delivery.Pending, delivery.Returned, skip, "", errs.ErrInvalidTransition},
		{"delivered is terminal", delivery.Delivered, delivery.Cancelled, skip, "", errs.ErrTerminalState},
		{"cancelled is terminal", delivery.Cancelled, delivery.Pickup, skip, "", errs.ErrTerminalState},
		{"returned is terminal", delivery.Returned, delivery.Delivered, skip, "", errs.ErrTerminalState},
		{"unknown status rejected", delivery.Pending, delivery.Status("lost"), skip, "", errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := delivery.Transition(tt.current, tt.requested, tt.policy)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				assert.False(t, delivery.CanTransition(tt.current, tt.requested, tt.policy))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, delivery.CanTransition(tt.current, tt.requested, tt.policy))
		})
	}
}

func TestTransitionTerminalErrorCarriesStates(t *testing.T) {
	_, err := delivery.Transition(delivery.Cancelled, delivery.Pickup, delivery.StrictPolicy)

	var terminal *errs.TerminalStateError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, "cancelled", terminal.State)
	assert.Equal(t, "pickup", terminal.Requested)
}

func TestSkipTolerance(t *testing.T) {
	t.Run("should enable skipping only for listed providers", func(t *testing.T) {
		tolerance, err := delivery.NewSkipTolerance(delivery.ProviderChaskis)

		require.NoError(t, err)
		assert.True(t, tolerance.PolicyFor(delivery.ProviderChaskis).AllowSkip)
		assert.False(t, tolerance.PolicyFor(delivery.ProviderUberDirect).AllowSkip)
		assert.Equal(t, delivery.StrictPolicy, tolerance.PolicyFor(delivery.ProviderStore))
	})

	t.Run("zero value is strict for everyone", func(t *testing.T) {
		var tolerance delivery.SkipTolerance

		assert.Equal(t, delivery.StrictPolicy, tolerance.PolicyFor(delivery.ProviderChaskis))
	})

	t.Run("should reject unknown provider", func(t *testing.T) {
		_, err := delivery.NewSkipTolerance(delivery.Provider("rappi"))

		require.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestTransitionPolicyImplicitStatuses(t *testing.T) {
	implicit, err := delivery.StrictPolicy.WithImplicit(delivery.PickupImminent, delivery.DropoffImminent)
	require.NoError(t, err)

	t.Run("should step over implicit statuses", func(t *testing.T) {
		got, err := delivery.Transition(delivery.Pickup, delivery.PickupComplete, implicit)
		require.NoError(t, err)
		assert.Equal(t, delivery.PickupComplete, got)

		got, err = delivery.Transition(delivery.Dropoff, delivery.Delivered, implicit)
		require.NoError(t, err)
		assert.Equal(t, delivery.Delivered, got)
	})

	t.Run("should still accept the implicit status itself", func(t *testing.T) {
		got, err := delivery.Transition(delivery.Pickup, delivery.PickupImminent, implicit)
		require.NoError(t, err)
		assert.Equal(t, delivery.PickupImminent, got)
	})

	t.Run("should reject a jump over an emitted status", func(t *testing.T) {
		_, err := delivery.Transition(delivery.Pickup, delivery.Delivered, implicit)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)

		_, err = delivery.Transition(delivery.Pickup, delivery.Dropoff, implicit)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("should only accept intermediate forward statuses", func(t *testing.T) {
		for _, s := range []delivery.Status{delivery.Pending, delivery.Delivered, delivery.Cancelled, delivery.Returned} {
			_, err := delivery.StrictPolicy.WithImplicit(s)
			require.ErrorIs(t, err, errs.ErrValidation, s)
		}
	})

	t.Run("strict policy has no implicit statuses", func(t *testing.T) {
		assert.False(t, delivery.StrictPolicy.IsImplicit(delivery.PickupImminent))
		assert.True(t, implicit.IsImplicit(delivery.PickupImminent))
		assert.False(t, implicit.IsImplicit(delivery.PickupComplete))
	})
}

func TestSkipToleranceWithImplicit(t *testing.T) {
	t.Run("should keep the configured skip setting", func(t *testing.T) {
		tolerance, err := delivery.NewSkipTolerance(delivery.ProviderUberDirect)
		require.NoError(t, err)

		tolerance, err = tolerance.WithImplicit(delivery.ProviderUberDirect, delivery.PickupImminent)
		require.NoError(t, err)

		policy := tolerance.PolicyFor(delivery.ProviderUberDirect)
		assert.True(t, policy.AllowSkip)
		assert.True(t, policy.IsImplicit(delivery.PickupImminent))
	})

	t.Run("should not touch the original or other providers", func(t *testing.T) {
		base, err := delivery.NewSkipTolerance()
		require.NoError(t, err)

		extended, err := base.WithImplicit(delivery.ProviderUberDirect, delivery.DropoffImminent)
		require.NoError(t, err)

		assert.Equal(t, delivery.StrictPolicy, base.PolicyFor(delivery.ProviderUberDirect))
		assert.Equal(t, delivery.StrictPolicy, extended.PolicyFor(delivery.ProviderChaskis))
		assert.False(t, extended.PolicyFor(delivery.ProviderUberDirect).AllowSkip)
	})

	t.Run("should reject unknown provider", func(t *testing.T) {
		var tolerance delivery.SkipTolerance

		_, err := tolerance.WithImplicit(delivery.Provider("rappi"), delivery.PickupImminent)
		require.ErrorIs(t, err, errs.ErrValidation)
	})
}
