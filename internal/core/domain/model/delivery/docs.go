// Package delivery provides the Delivery aggregate root and its status lifecycle.
//
// The package includes:
//   - Delivery: the aggregate holding identity, provider binding, stops, courier, fees and refund
//   - Status: the lifecycle states and the transition engine (Transition, TransitionPolicy)
//   - Provider and Channel: who executes a delivery and where its order came from
//   - Stop, Courier, Refund: value objects owned by the aggregate
//   - StatusChanged: the domain event emitted on every applied status change
//
// Lifecycle:
//
//	pending -> pickup -> pickup_imminent -> pickup_complete -> dropoff -> dropoff_imminent -> delivered
//	   any non-terminal status -> cancelled
//	   pickup .. dropoff_imminent -> returned
//
// delivered, cancelled and returned are terminal. Skipping forward along the chain is
// allowed only under a TransitionPolicy with AllowSkip, configured per provider for
// providers that do not report every intermediate event.
package delivery
