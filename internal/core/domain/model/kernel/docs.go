// Package kernel provides the shared value objects of the delivery domain.
//
// The package includes:
//   - UUID: identifier for aggregates and entities
//   - GeoPoint: a WGS84 latitude/longitude pair used for live courier positions
//   - Money: a non-negative decimal amount with an ISO 4217 currency code
//
// All value objects are immutable, and their zero values fail Validate so that
// uninitialized fields are caught at aggregate boundaries.
package kernel
