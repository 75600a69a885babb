package commands

import (
	"context"
)

type AttachRefundCommandHandler struct {
	uowFactory DeliveryUoWFactory
}

func NewAttachRefundCommandHandler(uowFactory DeliveryUoWFactory) AttachRefundCommandHandler {
	return AttachRefundCommandHandler{uowFactory: uowFactory}
}

func (h AttachRefundCommandHandler) Handle(ctx context.Context, command AttachRefundCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.DeliveryRepository()

	d, err := repo.Get(ctx, command.DeliveryID())
	if err != nil {
		return err
	}

	if err = d.AttachRefund(command.Refund()); err != nil {
		return err
	}

	if err = repo.Update(ctx, d); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
