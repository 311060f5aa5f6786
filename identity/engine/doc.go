// Package engine is a self-contained identity backend implementing
// identity.Backend. It is what authflowctl serves and what the controller
// tests run against end to end.
//
// # Storage
//
// Accounts live behind [UserStore] (see sqlitestore). Sessions, reset
// challenges and throttle counters live in Redis.
//
// # Password reset
//
// One request issues two challenges that share a fate: a 6-digit code keyed
// by email and a link token keyed by a random reset ID. Consuming either, or
// exhausting either's attempt budget, deletes both. A request for an unknown
// email succeeds after a short random delay and sends nothing.
//
// # Errors
//
// Every failure is an *identity.Error. Sign-in never distinguishes an unknown
// email from a wrong password.
//
// # What this package must NOT do
//
//   - Hold per-client state. Everything a client needs comes back in Tokens.
//   - Return raw store or Redis errors to callers.
package engine
