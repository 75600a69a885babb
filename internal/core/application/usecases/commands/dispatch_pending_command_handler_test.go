package commands_test

import (
	"errors"
	"testing"

	"deliveryhub/internal/core/application/sequencer"
	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewDispatchPendingCommand(t *testing.T) {
	_, err := commands.NewDispatchPendingCommand(0)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestDispatchPendingCommandHandler(t *testing.T) {
	t.Run("should dispatch batch and count outcomes", func(t *testing.T) {
		booked := newDelivery(t, delivery.ChannelNative, delivery.ProviderChaskis)
		failing := newDelivery(t, delivery.ChannelNative, delivery.ProviderChaskis)

		adapter := new(MockProviderAdapter)
		adapter.On("Dispatch", mock.Anything, mock.MatchedBy(func(d *delivery.Delivery) bool {
			return d.ID().IsEqual(booked.ID())
		})).Return(delivery.DispatchConfirmation{ProviderIdentifier: "chk_ok"}, nil).Once()
		adapter.On("Dispatch", mock.Anything, mock.MatchedBy(func(d *delivery.Delivery) bool {
			return d.ID().IsEqual(failing.ID())
		})).Return(delivery.DispatchConfirmation{}, errs.NewDispatchError("chaskis", errors.New("429"))).Once()

		uow := newMockUoW()
		uow.deliveries.On("GetAwaitingDispatch", mock.Anything, 10).
			Return([]*delivery.Delivery{restore(t, booked), restore(t, failing)}, nil).Once()
		uow.deliveries.On("Get", mock.Anything, booked.ID()).Return(restore(t, booked), nil).Twice()
		uow.deliveries.On("Get", mock.Anything, failing.ID()).Return(restore(t, failing), nil).Twice()
		uow.deliveries.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("Commit", mock.Anything).Return(nil).Twice()
		uow.On("Rollback", mock.Anything).Return(nil)

		factory := deliveryUoWFactory{uow}
		dispatcher := commands.NewDispatchDeliveryCommandHandler(factory,
			staticRegistry{delivery.ProviderChaskis: adapter}, sequencer.NewKeyedSequencer(), 3, discardLogger)
		handler := commands.NewDispatchPendingCommandHandler(factory, dispatcher, 2, discardLogger)

		cmd, err := commands.NewDispatchPendingCommand(10)
		require.NoError(t, err)

		result, err := handler.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.Equal(t, commands.DispatchPendingResult{Confirmed: 1, RetryLater: 1}, result)
		adapter.AssertExpectations(t)
		uow.deliveries.AssertExpectations(t)
	})

	t.Run("should return repository error", func(t *testing.T) {
		uow := newMockUoW()
		uow.deliveries.On("GetAwaitingDispatch", mock.Anything, 5).Return(nil, errors.New("db down")).Once()

		factory := deliveryUoWFactory{uow}
		dispatcher := commands.NewDispatchDeliveryCommandHandler(factory, staticRegistry{},
			sequencer.NewKeyedSequencer(), 3, discardLogger)

		cmd, err := commands.NewDispatchPendingCommand(5)
		require.NoError(t, err)

		_, err = commands.NewDispatchPendingCommandHandler(factory, dispatcher, 1, discardLogger).Handle(t.Context(), cmd)

		require.EqualError(t, err, "db down")
	})
}
