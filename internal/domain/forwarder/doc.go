// Package forwarder contains the Forwarder bounded context.
// A forwarder is a third-party logistics provider that receives goods at one of
// its warehouses, repacks them, clears customs and delivers them Delivered Duty Paid.
//
// Key concepts:
//   - Adapter: port every provider integration implements (rate quote, booking, tracking)
//   - Credential: per-provider API access plus the provider's warehouse addresses
//   - RateQuote / ShipmentResult / TrackingInfo: provider-neutral normalised results
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in internal/infrastructure/forwarder
package forwarder
