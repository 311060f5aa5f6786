// Package stores provides Redis-backed records for the identity engine:
// single-use password-reset challenges and revocable sessions.
//
// # Design
//
// Reset challenges are versioned binary records with a TTL. Consume uses
// WATCH/MULTI optimistic transactions with bounded retry, compares secrets in
// constant time, counts failed attempts, and deletes the record together with
// its sibling challenge on success.
//
// # What this package must NOT do
//
//   - Generate codes or tokens, or decide what a failure means to a user.
//   - Log or expose plaintext secrets.
//   - Import any sibling internal package.
package stores
