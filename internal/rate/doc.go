// Package rate provides the Redis-backed failure counter used to throttle
// password sign-in attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - "afl:" counts sign-in failures per email
//   - "afli:" counts sign-in failures per IP
//
// # What this package must NOT do
//
//   - Implement request-style throttles (those live in internal/limiters).
//   - Be imported outside the authflow module.
package rate
