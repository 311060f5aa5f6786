// Package prometheus exposes authflow controller metrics to Prometheus.
//
// [NewPrometheusExporter] reads [authflow.Controller.MetricsSnapshot]. The
// exporter serves a text rendering through Handler and can also be registered
// with a client_golang registry through Collector. Counter names are prefixed
// authflow_ and suffixed _total; the single histogram is
// authflow_identity_call_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers choose the registry.
//   - Mutate controller state.
package prometheus
