// Package sanitize maps raw identity-service failures to a fixed set of
// user-facing messages that never reveal whether an account exists.
//
// # Classification order
//
// A structured [identity.Code] is authoritative when present. Otherwise the
// raw message is classified by case-insensitive substring rules evaluated in
// order; the first match wins and anything unmatched falls through to the
// context's generic message. The substring path is heuristic and wording
// dependent; it exists for providers that only return free text.
//
// # What this package must NOT do
//
//   - Return the raw input, or any string outside the per-context message set.
//   - Return an empty string or panic, for any input.
//   - Perform I/O.
package sanitize
