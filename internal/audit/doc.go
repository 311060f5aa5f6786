// Package audit relays authentication flow events to a sink without blocking
// the caller.
//
// # Components
//
//   - [Sink] consumes events (channel, JSON lines, slog, no-op).
//   - [Dispatcher] is a buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event] is the structured record.
//
// # What this package must NOT do
//
//   - Decide which events to emit. Callers own that.
//   - Carry raw passwords, codes, tokens, or unmasked email addresses.
//   - Import authflow or any sibling internal package.
package audit
