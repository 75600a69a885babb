// Package restaurant holds the per-restaurant delivery configuration consumed by the
// assignment resolver.
package restaurant
