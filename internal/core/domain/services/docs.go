// Package services provides domain services that orchestrate business operations
// that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - AssignmentResolver: decides which provider handles a delivery, per order channel
//
// Native-channel orders take the restaurant's pre-configured default provider and get a
// quote before the order is confirmed. Third-party-channel orders wait for the
// restaurant's explicit choice, which must be one of its enabled providers.
package services
