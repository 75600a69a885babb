package commands

import (
	"context"
	"fmt"
	"log/slog"

	"deliveryhub/internal/core/application/sequencer"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
)

// DefaultMaxDispatchAttempts is the number of failed dispatch rounds after which a
// delivery is marked failed. Each round already includes the adapter's own retries.
const DefaultMaxDispatchAttempts = 3

// DispatchOutcome describes what a dispatch round did.
type DispatchOutcome int

const (
	// DispatchSkipped means the delivery needed no dispatch (already booked).
	DispatchSkipped DispatchOutcome = iota
	DispatchConfirmed
	// DispatchRetryLater means the round failed and another one will be attempted.
	DispatchRetryLater
	// DispatchMarkedFailed means the delivery ran out of attempts and was cancelled.
	DispatchMarkedFailed
)

func (o DispatchOutcome) String() string {
	switch o {
	case DispatchConfirmed:
		return "confirmed"
	case DispatchRetryLater:
		return "retry_later"
	case DispatchMarkedFailed:
		return "marked_failed"
	default:
		return "skipped"
	}
}

// DispatchDeliveryCommandHandler calls the provider adapter and records the outcome.
//
// The provider call runs outside the database transaction; the result is applied to a
// freshly locked copy of the delivery. Rounds for the same delivery never overlap.
type DispatchDeliveryCommandHandler struct {
	uowFactory  DeliveryUoWFactory
	registry    ports.ProviderRegistry
	sequencer   *sequencer.KeyedSequencer
	maxAttempts int
	logger      *slog.Logger
}

func NewDispatchDeliveryCommandHandler(
	uowFactory DeliveryUoWFactory,
	registry ports.ProviderRegistry,
	seq *sequencer.KeyedSequencer,
	maxAttempts int,
	logger *slog.Logger,
) DispatchDeliveryCommandHandler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxDispatchAttempts
	}
	return DispatchDeliveryCommandHandler{
		uowFactory:  uowFactory,
		registry:    registry,
		sequencer:   seq,
		maxAttempts: maxAttempts,
		logger:      logger.With("component", "dispatch_delivery_handler"),
	}
}

// Handle runs one dispatch round.
//
// A failed round returns the adapter's DispatchError together with DispatchRetryLater or,
// once maxAttempts rounds have failed, DispatchMarkedFailed.
func (h DispatchDeliveryCommandHandler) Handle(
	ctx context.Context,
	command DispatchDeliveryCommand,
) (DispatchOutcome, error) {
	if err := command.Validate(); err != nil {
		return DispatchSkipped, err
	}

	var outcome DispatchOutcome
	err := h.sequencer.Do(ctx, command.DeliveryID().String(), func(ctx context.Context) error {
		var err error
		outcome, err = h.dispatch(ctx, command)
		return err
	})
	return outcome, err
}

func (h DispatchDeliveryCommandHandler) dispatch(
	ctx context.Context,
	command DispatchDeliveryCommand,
) (DispatchOutcome, error) {
	uow := h.uowFactory.Create()

	d, err := uow.DeliveryRepository().Get(ctx, command.DeliveryID())
	if err != nil {
		return DispatchSkipped, err
	}
	if d.IsDispatched() {
		return DispatchSkipped, nil
	}
	if err = checkDispatchable(d); err != nil {
		return DispatchSkipped, err
	}

	provider := d.Provider()
	adapter, err := h.registry.Adapter(provider)
	if err != nil {
		return DispatchSkipped, err
	}

	confirmation, dispatchErr := adapter.Dispatch(ctx, d)

	if err = uow.Begin(ctx); err != nil {
		return DispatchSkipped, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()
	if d, err = repo.Get(ctx, command.DeliveryID()); err != nil {
		return DispatchSkipped, err
	}

	stillDispatchable := checkDispatchable(d)
	if stillDispatchable == nil && d.Provider() != provider {
		stillDispatchable = errs.NewInvalidStateError("dispatch", "provider changed to "+d.Provider().String())
	}

	if dispatchErr == nil {
		if stillDispatchable != nil {
			// Cancelled or reassigned while the provider was booking it.
			h.cancelQuietly(ctx, adapter, confirmation.ProviderIdentifier)
			return DispatchSkipped, stillDispatchable
		}
		if err = d.ConfirmDispatch(confirmation); err != nil {
			h.cancelQuietly(ctx, adapter, confirmation.ProviderIdentifier)
			return DispatchSkipped, err
		}
		if err = repo.Update(ctx, d); err != nil {
			return DispatchSkipped, err
		}
		if err = uow.Commit(ctx); err != nil {
			return DispatchSkipped, err
		}
		return DispatchConfirmed, nil
	}

	if stillDispatchable != nil {
		// Nothing left to retry.
		return DispatchSkipped, nil
	}

	outcome := DispatchRetryLater
	attempts := d.RecordDispatchFailure(dispatchErr.Error())
	if attempts >= h.maxAttempts {
		reason := fmt.Sprintf("dispatch to %s failed after %d attempts: %v", d.Provider(), attempts, dispatchErr)
		if err = d.MarkFailed(reason); err != nil {
			return DispatchSkipped, err
		}
		outcome = DispatchMarkedFailed
	}

	if err = repo.Update(ctx, d); err != nil {
		return DispatchSkipped, err
	}
	if err = uow.Commit(ctx); err != nil {
		return DispatchSkipped, err
	}

	return outcome, dispatchErr
}

func checkDispatchable(d *delivery.Delivery) error {
	switch {
	case !d.HasProvider():
		return errs.NewInvalidStateError("dispatch", "no provider is assigned")
	case d.Status() != delivery.Pending:
		return errs.NewInvalidStateError("dispatch", d.Status().String())
	case d.IsFailed():
		return errs.NewInvalidStateError("dispatch", "marked failed")
	default:
		return nil
	}
}

func (h DispatchDeliveryCommandHandler) cancelQuietly(
	ctx context.Context,
	adapter ports.ProviderAdapter,
	providerIdentifier string,
) {
	if providerIdentifier == "" {
		return
	}
	if err := adapter.Cancel(ctx, providerIdentifier); err != nil {
		h.logger.WarnContext(ctx, "Failed to cancel orphaned provider booking",
			"provider", adapter.Provider(), "provider_identifier", providerIdentifier, "error", err)
	}
}
