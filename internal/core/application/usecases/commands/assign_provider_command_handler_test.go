package commands_test

import (
	"testing"

	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/core/domain/services"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAssignProviderCommandHandler(t *testing.T) {
	settings, err := restaurant.NewSettings("rest_1", delivery.ProviderUnset,
		[]delivery.Provider{delivery.ProviderStore, delivery.ProviderChaskis})
	require.NoError(t, err)

	t.Run("should bind enabled and available provider", func(t *testing.T) {
		d := newDelivery(t, delivery.ChannelThirdParty, delivery.ProviderUnset)
		locked := restore(t, d)

		adapter := new(MockProviderAdapter)
		adapter.On("CheckAvailability", mock.Anything, mock.MatchedBy(func(req ports.AvailabilityRequest) bool {
			return req.RestaurantID == "rest_1" && req.DropOffAddress == "Av. Larco 101"
		})).Return(ports.Availability{Available: true}, nil).Once()

		uow := newMockUoW()
		uow.deliveries.On("Get", mock.Anything, d.ID()).Return(d, nil).Once()
		uow.deliveries.On("Get", mock.Anything, d.ID()).Return(locked, nil).Once()
		uow.settings.On("Get", mock.Anything, "rest_1").Return(settings, nil).Once()
		uow.expectTx(true)
		uow.deliveries.On("Update", mock.Anything, locked).Return(nil).Once()

		cmd, err := commands.NewAssignProviderCommand(d.ID(), delivery.ProviderChaskis, "")
		require.NoError(t, err)

		err = commands.NewAssignProviderCommandHandler(uowFactory{uow},
			services.NewAssignmentResolver(staticRegistry{delivery.ProviderChaskis: adapter})).
			Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, delivery.ProviderChaskis, locked.Provider())
		assert.Equal(t, delivery.Pending, locked.Status())
		uow.AssertExpectations(t)
	})

	t.Run("should reject provider the restaurant did not enable", func(t *testing.T) {
		d := newDelivery(t, delivery.ChannelThirdParty, delivery.ProviderUnset)

		uow := newMockUoW()
		uow.deliveries.On("Get", mock.Anything, d.ID()).Return(d, nil).Once()
		uow.settings.On("Get", mock.Anything, "rest_1").Return(settings, nil).Once()

		cmd, err := commands.NewAssignProviderCommand(d.ID(), delivery.ProviderUberDirect, "")
		require.NoError(t, err)

		err = commands.NewAssignProviderCommandHandler(uowFactory{uow},
			services.NewAssignmentResolver(staticRegistry{})).Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrProviderUnavailable)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("should reject reassignment after dispatch", func(t *testing.T) {
		d := dispatchedDelivery(t)

		adapter := new(MockProviderAdapter)
		adapter.On("CheckAvailability", mock.Anything, mock.Anything).Return(ports.Availability{Available: true}, nil).Once()

		uow := newMockUoW()
		uow.deliveries.On("Get", mock.Anything, d.ID()).Return(d, nil).Twice()
		uow.settings.On("Get", mock.Anything, "rest_1").Return(settings, nil).Once()
		uow.expectTx(false)

		cmd, err := commands.NewAssignProviderCommand(d.ID(), delivery.ProviderStore, "")
		require.NoError(t, err)

		err = commands.NewAssignProviderCommandHandler(uowFactory{uow},
			services.NewAssignmentResolver(staticRegistry{delivery.ProviderStore: adapter})).
			Handle(t.Context(), cmd)

		require.ErrorIs(t, err, errs.ErrInvalidState)
		uow.deliveries.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}
