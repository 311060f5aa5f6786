// Package identity defines the contract between authentication flows and the
// identity service that owns accounts, credentials, one-time codes and sessions.
//
// # Architecture boundaries
//
// [Service] is the client-side surface consumed by UI flows. [Backend] is the
// stateless server-side surface implemented by identity engines and transports.
// The client package adapts a Backend into a Service and owns session state.
//
// # Error contract
//
// Backends report failures as [*Error] values carrying a stable [Code]. Callers
// must never show Error.Message to end users; it exists for logs and for
// substring-based classification of providers without structured codes.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Import authflow, sanitize, or any backend implementation.
package identity
