package commands

import (
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/guard"
)

var ErrAssignProviderCommandIsNotConstructed = errors.New(
	"AssignProviderCommand must be created via NewAssignProviderCommand constructor",
)

// AssignProviderCommand records the restaurant's choice of provider for a delivery that
// has not been dispatched yet, typically a third-party-channel order.
type AssignProviderCommand struct {
	deliveryID         kernel.UUID
	provider           delivery.Provider
	providerIdentifier string

	guard guard.ConstructorGuard
}

// NewAssignProviderCommand builds the command. providerIdentifier is optional and only
// set when the delivery was already booked with the provider outside this service.
func NewAssignProviderCommand(
	deliveryID kernel.UUID,
	provider delivery.Provider,
	providerIdentifier string,
) (AssignProviderCommand, error) {
	if err := errors.Join(deliveryID.Validate(), provider.Validate()); err != nil {
		return AssignProviderCommand{}, err
	}

	return AssignProviderCommand{
		deliveryID:         deliveryID,
		provider:           provider,
		providerIdentifier: strings.TrimSpace(providerIdentifier),
		guard:              guard.NewConstructorGuard(),
	}, nil
}

func (c AssignProviderCommand) Validate() error {
	return c.guard.Validate(ErrAssignProviderCommandIsNotConstructed)
}

func (c AssignProviderCommand) DeliveryID() kernel.UUID { return c.deliveryID }

func (c AssignProviderCommand) Provider() delivery.Provider { return c.provider }

func (c AssignProviderCommand) ProviderIdentifier() string { return c.providerIdentifier }
