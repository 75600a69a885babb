package commands

import (
	"context"
	"errors"

	"deliveryhub/internal/core/application/sequencer"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

// CancelDeliveryCommandHandler cancels at the provider first and only then records the
// cancellation, so a provider refusal leaves the delivery untouched. No transaction is
// open while the provider is called.
type CancelDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	registry   ports.ProviderRegistry
	sequencer  *sequencer.KeyedSequencer
}

func NewCancelDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	registry ports.ProviderRegistry,
	seq *sequencer.KeyedSequencer,
) CancelDeliveryCommandHandler {
	return CancelDeliveryCommandHandler{uowFactory: uowFactory, registry: registry, sequencer: seq}
}

// Handle cancels the delivery.
//
// Returns InvalidStateError once the order has been picked up, TerminalStateError for
// finished deliveries and the adapter's CancelError when the provider refuses.
func (h CancelDeliveryCommandHandler) Handle(ctx context.Context, command CancelDeliveryCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	return h.sequencer.Do(ctx, command.DeliveryID().String(), func(ctx context.Context) error {
		return h.cancel(ctx, command)
	})
}

// cancel checks the delivery on a plain read, cancels at the provider with no
// transaction open and then re-reads the row under lock to record the cancellation.
func (h CancelDeliveryCommandHandler) cancel(ctx context.Context, command CancelDeliveryCommand) error {
	uow := h.uowFactory.Create()

	d, err := uow.DeliveryRepository().Get(ctx, command.DeliveryID())
	if err != nil {
		return err
	}

	identifier := d.ProviderIdentifier()
	wasDispatched := d.IsDispatched()

	// d is a throwaway copy here; Cancel only tells whether cancelling is allowed.
	if err = d.Cancel(command.Reason()); err != nil {
		return err
	}

	if wasDispatched {
		adapter, adapterErr := h.registry.Adapter(d.Provider())
		if adapterErr != nil {
			return adapterErr
		}
		if err = adapter.Cancel(ctx, identifier); err != nil {
			return err
		}
	}

	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()
	if d, err = repo.Get(ctx, command.DeliveryID()); err != nil {
		return err
	}

	switch {
	case d.Status() == delivery.Cancelled:
		// The provider's own cancel event got here first.
		return nil
	case d.IsDispatched() && d.ProviderIdentifier() != identifier:
		return errs.NewInvalidStateErrorWithCause("cancel", d.Status().String(),
			errors.New("dispatch was confirmed while cancelling, retry"))
	}

	if err = d.Cancel(command.Reason()); err != nil {
		return err
	}

	if err = repo.Update(ctx, d); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
