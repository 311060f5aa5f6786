// Package flows contains pure-function orchestrators for every screen action
// of the authentication controller.
//
// Each flow function (RunSignIn, RunRequestPasswordReset, RunResetPassword,
// etc.) accepts a typed dependency struct and returns an [Outcome] without
// side-effects beyond those dependencies. Screens own lifetimes, loading flags
// and navigation; flows only decide what a single action produced.
//
// # Architecture boundaries
//
// Flow functions coordinate local validation, one identity call, message
// sanitization, audit and metrics. They do NOT own any of these resources;
// ownership stays with the Controller.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authflow (to avoid import cycles).
//   - Retry a remote call.
//   - Put a raw remote error message into Outcome.Message.
package flows
