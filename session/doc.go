// Package session models the authentication state signal that an identity
// client library owns and UI flows observe.
//
// # Architecture boundaries
//
// A [Signal] is created and published by the identity client. Everything else
// receives it as an [Observer], which can read and subscribe but never write.
//
// # What this package must NOT do
//
//   - Hold process-wide state. Every Signal is an explicit value passed to its users.
//   - Invoke subscribers while holding the internal lock.
//   - Import authflow, identity, or any transport package (no upward imports).
package session
