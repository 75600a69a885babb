package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrTerminalState     = errors.New("terminal state")
)

// InvalidStateError reports an operation the aggregate cannot perform in its current state.
type InvalidStateError struct {
	Operation string
	State     string
	Cause     error
}

func NewInvalidStateError(operation, state string) *InvalidStateError {
	return &InvalidStateError{Operation: operation, State: state}
}

func NewInvalidStateErrorWithCause(operation, state string, cause error) *InvalidStateError {
	return &InvalidStateError{Operation: operation, State: state, Cause: cause}
}

func (e *InvalidStateError) Error() string {
	return withCause(fmt.Sprintf("%s: cannot %s while %s", ErrInvalidState, e.Operation, e.State), e.Cause)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// InvalidTransitionError reports a requested status that is not reachable from the current one.
type InvalidTransitionError struct {
	From string
	To   string
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// TerminalStateError reports a transition requested out of a terminal status.
type TerminalStateError struct {
	State     string
	Requested string
}

func NewTerminalStateError(state, requested string) *TerminalStateError {
	return &TerminalStateError{State: state, Requested: requested}
}

func (e *TerminalStateError) Error() string {
	return fmt.Sprintf("%s: %s accepts no transition to %s", ErrTerminalState, e.State, e.Requested)
}

func (e *TerminalStateError) Unwrap() error { return ErrTerminalState }
