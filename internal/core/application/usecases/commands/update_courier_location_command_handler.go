package commands

import (
	"context"
)

type UpdateCourierLocationCommandHandler struct {
	uowFactory DeliveryUoWFactory
}

func NewUpdateCourierLocationCommandHandler(uowFactory DeliveryUoWFactory) UpdateCourierLocationCommandHandler {
	return UpdateCourierLocationCommandHandler{uowFactory: uowFactory}
}

// Handle stores the ping and reports whether it was applied. Pings older than the stored
// location return false without error; pings outside the tracking window fail with
// InvalidStateError.
func (h UpdateCourierLocationCommandHandler) Handle(
	ctx context.Context,
	command UpdateCourierLocationCommand,
) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()

	d, err := repo.Get(ctx, command.DeliveryID())
	if err != nil {
		return false, err
	}

	applied, err := d.UpdateCourierLocation(command.Location(), command.RecordedAt())
	if err != nil || !applied {
		return false, err
	}

	if err = repo.Update(ctx, d); err != nil {
		return false, err
	}

	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
