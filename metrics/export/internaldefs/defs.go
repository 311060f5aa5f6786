package internaldefs

import (
	"github.com/MrEthical07/authflow"
)

// CounterDef names one controller counter.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef names one controller histogram.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricSignInSuccess, Name: "authflow_sign_in_success_total", Help: "Successful sign-in actions."},
	{ID: authflow.MetricSignInFailure, Name: "authflow_sign_in_failure_total", Help: "Sign-in actions rejected by the identity service."},
	{ID: authflow.MetricSignUpSuccess, Name: "authflow_sign_up_success_total", Help: "Successful sign-up actions."},
	{ID: authflow.MetricSignUpFailure, Name: "authflow_sign_up_failure_total", Help: "Sign-up actions rejected by the identity service."},
	{ID: authflow.MetricValidationFailure, Name: "authflow_validation_failure_total", Help: "Actions stopped by local input validation."},
	{ID: authflow.MetricResetRequested, Name: "authflow_reset_requested_total", Help: "Reset-code requests shown as sent."},
	{ID: authflow.MetricResetRequestFailure, Name: "authflow_reset_request_failure_total", Help: "Reset-code requests the identity service failed."},
	{ID: authflow.MetricResendSuccess, Name: "authflow_reset_resend_success_total", Help: "Reset codes re-sent."},
	{ID: authflow.MetricResendFailure, Name: "authflow_reset_resend_failure_total", Help: "Reset-code resends the identity service failed."},
	{ID: authflow.MetricResetCodeAccepted, Name: "authflow_reset_code_accepted_total", Help: "Reset codes accepted by local validation."},
	{ID: authflow.MetricResetAutoSubmit, Name: "authflow_reset_auto_submit_total", Help: "Reset codes submitted from a link."},
	{ID: authflow.MetricResetSuccess, Name: "authflow_reset_success_total", Help: "Completed password resets."},
	{ID: authflow.MetricResetFailure, Name: "authflow_reset_failure_total", Help: "Password resets rejected by the identity service."},
	{ID: authflow.MetricInvalidLink, Name: "authflow_reset_invalid_link_total", Help: "Reset screens opened without usable reset material."},
	{ID: authflow.MetricActionAbandoned, Name: "authflow_action_abandoned_total", Help: "Action results discarded after their screen closed."},
	{ID: authflow.MetricActionBusy, Name: "authflow_action_busy_total", Help: "Actions rejected while another was running."},
	{ID: authflow.MetricSignOut, Name: "authflow_sign_out_total", Help: "Sign-out calls."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricRemoteLatency, Name: "authflow_identity_call_latency_seconds", Help: "Identity service call latency."},
}

// HistogramBounds are the upper bounds of the controller's latency buckets,
// in Prometheus "le" notation.
var HistogramBounds = []string{
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundValues mirrors HistogramBounds without the +Inf bucket.
var HistogramBoundValues = []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// HistogramBoundSuffix names bucket gauges where "." is not allowed.
var HistogramBoundSuffix = []string{
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
