// Package authflow drives the client-side authentication screens of an app:
// sign-in, sign-up, request-password-reset, verify-reset-code and
// reset-password.
//
// A [Controller] is assembled with [Builder.Build]. It validates input locally
// before any identity call, maps every identity failure onto a fixed set of
// enumeration-safe messages (see package sanitize), tracks per-screen loading
// state, and navigates when the externally owned session signal changes.
//
// # Architecture boundaries
//
// authflow is the public surface. Screens and the reset state machine live
// here; flow orchestration lives under internal/flows and receives its
// dependencies as function fields. The identity service, the session signal
// and the navigator are supplied by the host application.
//
// # What this package must NOT do
//
//   - Show a raw identity error message in [Result.Message].
//   - Publish to or otherwise mutate the session signal.
//   - Retry an identity call on its own.
//   - Apply or navigate on a result that settled after its screen closed.
//
// # Concurrency
//
// Controller and screen methods are safe to call from multiple goroutines.
// A screen admits one primary action at a time; an overlapping call returns a
// [Result] with Busy set and performs no work.
package authflow
