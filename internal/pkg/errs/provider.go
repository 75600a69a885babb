package errs

import (
	"errors"
	"fmt"
)

var (
	ErrDispatch                    = errors.New("dispatch failed")
	ErrCancel                      = errors.New("cancel failed")
	ErrUnrecognizedPayload         = errors.New("unrecognized payload")
	ErrNoDefaultProviderConfigured = errors.New("no default provider configured")
	ErrProviderUnavailable         = errors.New("provider unavailable")
)

// DispatchError is returned by a provider adapter that rejected or failed a dispatch call.
// Retryable marks transient failures (timeouts, 5xx, throttling).
type DispatchError struct {
	Provider  string
	Retryable bool
	Cause     error
}

func NewDispatchError(provider string, cause error) *DispatchError {
	return &DispatchError{Provider: provider, Cause: cause}
}

func NewRetryableDispatchError(provider string, cause error) *DispatchError {
	return &DispatchError{Provider: provider, Retryable: true, Cause: cause}
}

func (e *DispatchError) Error() string {
	return withCause(fmt.Sprintf("%s: provider %s", ErrDispatch, e.Provider), e.Cause)
}

func (e *DispatchError) Unwrap() error { return ErrDispatch }

// CancelError is returned by a provider adapter that could not cancel a delivery.
type CancelError struct {
	Provider           string
	ProviderIdentifier string
	Retryable          bool
	Cause              error
}

func NewCancelError(provider, providerIdentifier string, cause error) *CancelError {
	return &CancelError{Provider: provider, ProviderIdentifier: providerIdentifier, Cause: cause}
}

func NewRetryableCancelError(provider, providerIdentifier string, cause error) *CancelError {
	return &CancelError{Provider: provider, ProviderIdentifier: providerIdentifier, Retryable: true, Cause: cause}
}

func (e *CancelError) Error() string {
	return withCause(
		fmt.Sprintf("%s: provider %s, delivery %s", ErrCancel, e.Provider, e.ProviderIdentifier), e.Cause)
}

func (e *CancelError) Unwrap() error { return ErrCancel }

// UnrecognizedPayloadError is returned when a webhook payload cannot be mapped to a domain event.
type UnrecognizedPayloadError struct {
	Provider  string
	EventType string
	Cause     error
}

func NewUnrecognizedPayloadError(provider, eventType string) *UnrecognizedPayloadError {
	return &UnrecognizedPayloadError{Provider: provider, EventType: eventType}
}

func NewUnrecognizedPayloadErrorWithCause(provider, eventType string, cause error) *UnrecognizedPayloadError {
	return &UnrecognizedPayloadError{Provider: provider, EventType: eventType, Cause: cause}
}

func (e *UnrecognizedPayloadError) Error() string {
	return withCause(
		fmt.Sprintf("%s: provider %s, event %q", ErrUnrecognizedPayload, e.Provider, sanitize(e.EventType)), e.Cause)
}

func (e *UnrecognizedPayloadError) Unwrap() error { return ErrUnrecognizedPayload }

// IsRetryable reports whether err is a provider-boundary failure worth retrying.
func IsRetryable(err error) bool {
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		return dispatchErr.Retryable
	}
	var cancelErr *CancelError
	if errors.As(err, &cancelErr) {
		return cancelErr.Retryable
	}
	return false
}
