package commands

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"
	"deliveryhub/internal/pkg/guard"
)

var ErrApplyProviderEventCommandIsNotConstructed = errors.New(
	"ApplyProviderEventCommand must be created via NewApplyProviderEventCommand constructor",
)

// ApplyProviderEventCommand feeds a normalized provider webhook or poll result into the
// delivery it refers to.
type ApplyProviderEventCommand struct {
	event ports.ProviderEvent
	guard guard.ConstructorGuard
}

func NewApplyProviderEventCommand(event ports.ProviderEvent) (ApplyProviderEventCommand, error) {
	var identifierErr, contentErr, statusErr error

	if strings.TrimSpace(event.ProviderIdentifier) == "" {
		identifierErr = errs.NewValueIsRequiredError("providerIdentifier")
	}
	if !event.HasStatus() && event.Courier == nil && event.Location == nil {
		contentErr = errs.NewValueIsRequiredError("status, courier or location")
	}
	if event.HasStatus() {
		statusErr = event.Status.Validate()
	}

	if err := errors.Join(event.Provider.Validate(), identifierErr, contentErr, statusErr); err != nil {
		return ApplyProviderEventCommand{}, err
	}

	return ApplyProviderEventCommand{event: event, guard: guard.NewConstructorGuard()}, nil
}

func (c ApplyProviderEventCommand) Validate() error {
	return c.guard.Validate(ErrApplyProviderEventCommandIsNotConstructed)
}

func (c ApplyProviderEventCommand) Event() ports.ProviderEvent {
	return c.event
}
