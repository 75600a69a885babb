package commands

import (
	"context"

	"deliveryhub/internal/core/domain/model/delivery"
)

// ApplyProviderEventCommandHandler applies the status, courier and location carried by a
// provider event.
//
// The status goes first, under the provider's skip tolerance. A stale status fails with
// delivery.ErrStaleEvent and nothing else from that event is applied. Courier details are
// ignored once the delivery is terminal, and locations outside the tracking window are
// dropped.
type ApplyProviderEventCommandHandler struct {
	uowFactory DeliveryUoWFactory
	tolerance  delivery.SkipTolerance
}

func NewApplyProviderEventCommandHandler(
	uowFactory DeliveryUoWFactory,
	tolerance delivery.SkipTolerance,
) ApplyProviderEventCommandHandler {
	return ApplyProviderEventCommandHandler{uowFactory: uowFactory, tolerance: tolerance}
}

func (h ApplyProviderEventCommandHandler) Handle(ctx context.Context, command ApplyProviderEventCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}
	event := command.Event()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()

	d, err := repo.GetByProviderIdentifier(ctx, event.Provider, event.ProviderIdentifier)
	if err != nil {
		return err
	}

	if event.HasStatus() {
		if err = d.ApplyStatus(event.Status, h.tolerance.PolicyFor(event.Provider), event.OccurredAt); err != nil {
			return err
		}
	}

	if event.Courier != nil && !d.Status().IsTerminal() {
		if err = d.AssignCourier(*event.Courier); err != nil {
			return err
		}
	}

	if event.Location != nil && d.Courier() != nil && d.Status().TracksCourierLocation() {
		if _, err = d.UpdateCourierLocation(*event.Location, event.OccurredAt); err != nil {
			return err
		}
	}

	if err = repo.Update(ctx, d); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
