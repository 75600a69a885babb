// Package errs provides standardized error types for the delivery service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several groups of error types:
//   - Validation: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//     (all of them match ErrValidation via errors.Is)
//   - Lookup: ObjectNotFoundError, ObjectAlreadyExistsError
//   - Lifecycle: InvalidStateError, InvalidTransitionError, TerminalStateError
//   - Provider boundary: DispatchError, CancelError, UnrecognizedPayloadError
//   - Assignment: NoDefaultProviderConfiguredError, ProviderUnavailableError
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
package errs
