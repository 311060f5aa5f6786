// Package otel exports authflow controller metrics through OpenTelemetry.
//
// Counters are grouped into attributed families rather than one instrument
// per counter: authflow.sign_in carries result and failure category,
// authflow.password_reset.completions carries method (otp or token) and
// result, and authflow.audit.dropped carries the audit event type. Latency
// is published as cumulative bucket gauges keyed by an le attribute.
//
// A single callback reads [authflow.Controller.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate controller state.
package otel
