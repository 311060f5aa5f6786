// Package internal contains helpers that are private to authflow: reset
// token encoding and one-time code generation.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every controller action
//   - limiters: request throttles for sign-up and password reset
//   - rate: sign-in failure counter
//   - stores Redis reset challenge and session stores
//
// # What this package must NOT do
//
//   - Export types that appear in the public authflow API.
//   - Be imported by any package outside the authflow module.
package internal
