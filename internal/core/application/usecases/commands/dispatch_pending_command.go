package commands

import (
	"errors"
	"fmt"

	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var ErrDispatchPendingCommandIsNotConstructed = errors.New(
	"DispatchPendingCommand must be created via NewDispatchPendingCommand constructor",
)

// DispatchPendingCommand dispatches up to batchSize deliveries that have a provider but
// no confirmed booking.
type DispatchPendingCommand struct {
	batchSize int
	guard     guard.ConstructorGuard
}

func NewDispatchPendingCommand(batchSize int) (DispatchPendingCommand, error) {
	if batchSize <= 0 {
		return DispatchPendingCommand{}, errs.NewValueIsInvalidErrorWithCause("batchSize", fmt.Errorf("%d is not positive", batchSize))
	}
	return DispatchPendingCommand{batchSize: batchSize, guard: guard.NewConstructorGuard()}, nil
}

func (c DispatchPendingCommand) Validate() error {
	return c.guard.Validate(ErrDispatchPendingCommandIsNotConstructed)
}

func (c DispatchPendingCommand) BatchSize() int {
	return c.batchSize
}
