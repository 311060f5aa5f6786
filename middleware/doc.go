// Package middleware exposes HTTP middleware that guards identity endpoints
// behind a valid access token.
//
// # Guards
//
//   - [RequireSession] rejects requests without a valid, unrevoked bearer
//     token and injects the verified claims into the request context.
//   - [ClaimsFromContext] reads them back in the wrapped handler.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into [Authenticator] calls. It does
// NOT implement authentication logic itself; all decisions are delegated to
// the Authenticator (normally the identity engine).
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access Redis.
//   - Leak the reason a token was rejected to the caller.
package middleware
