package delivery

import (
	"fmt"

	"deliveryhub/internal/pkg/errs"
)

// Provider identifies who physically executes a delivery.
type Provider string

const (
	// ProviderUnset marks a third-party-channel delivery still waiting for the restaurant's choice.
	ProviderUnset      Provider = ""
	ProviderStore      Provider = "store"
	ProviderChaskis    Provider = "chaskis"
	ProviderUberDirect Provider = "uberDirect"
)

// Providers lists every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{ProviderStore, ProviderChaskis, ProviderUberDirect}
}

// ParseProvider maps the wire name of a provider to its value.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if err := p.Validate(); err != nil {
		return ProviderUnset, err
	}
	return p, nil
}

func (p Provider) Validate() error {
	switch p {
	case ProviderStore, ProviderChaskis, ProviderUberDirect:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("provider", fmt.Errorf("%q is not a supported provider", string(p)))
	}
}

// IsThirdParty reports whether the provider is an external courier network.
func (p Provider) IsThirdParty() bool {
	return p == ProviderChaskis || p == ProviderUberDirect
}

func (p Provider) String() string {
	if p == ProviderUnset {
		return "unset"
	}
	return string(p)
}

// Channel is the surface the order was placed on.
type Channel string

const (
	// ChannelNative orders come from the platform's own ordering surface; delivery is
	// mandatory and its provider is resolved from the restaurant default before confirmation.
	ChannelNative Channel = "native"
	// ChannelThirdParty orders are relayed from an external platform; the restaurant picks
	// the provider after the order exists.
	ChannelThirdParty Channel = "third_party"
)

func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

func (c Channel) Validate() error {
	if c != ChannelNative && c != ChannelThirdParty {
		return errs.NewValueIsInvalidErrorWithCause("channel", fmt.Errorf("%q is not a supported channel", string(c)))
	}
	return nil
}
