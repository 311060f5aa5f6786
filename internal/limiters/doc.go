// Package limiters provides request-style rate limiters for the identity
// engine. Every call counts, success or not.
//
// # Limiters
//
//   - [RequestLimiter.CheckSignUp]: per-email + per-IP throttle for sign-ups.
//   - [RequestLimiter.CheckResetRequest]: per-email + per-IP throttle for
//     reset code requests and resends.
//   - [RequestLimiter.CheckResetConfirm]: per-challenge + per-IP throttle for
//     reset confirmations.
//
// A nil *RequestLimiter allows everything.
//
// # Architecture boundaries
//
// The limiter owns its Redis key namespace and error types. Thresholds come
// from [Config] at construction time.
//
// # What this package must NOT do
//
//   - Import authflow or any sibling internal package.
//   - Make policy decisions beyond counting: the engine decides consequences.
package limiters
