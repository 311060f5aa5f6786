package otel

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authflow.MetricsSnapshot
	AuditDroppedByEvent() map[string]uint64
}

// reading derives one data point from a snapshot.
type reading func(s authflow.MetricsSnapshot) uint64

type point struct {
	attrs metric.ObserveOption
	read  reading
}

// family is one instrument observed under several attribute sets.
type family struct {
	instrument metric.Int64Observable
	points     []point
}

// OTelExporter publishes the controller's metrics as attributed instrument
// families. It reads one snapshot per collection cycle.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	families     []family
	auditDropped metric.Int64ObservableCounter
	latency      metric.Int64ObservableGauge
	latencyCount metric.Int64ObservableGauge
	latencyLE    []metric.ObserveOption
}

// NewOTelExporter registers observable instruments for c on meter.
func NewOTelExporter(meter metric.Meter, c *authflow.Controller) (*OTelExporter, error) {
	if c == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, c)
}

// NewOTelExporterFromSource registers instruments for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	observables := make([]metric.Observable, 0, 16)

	for _, spec := range familySpecs() {
		ins, err := meter.Int64ObservableCounter(spec.name, metric.WithDescription(spec.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", spec.name, err)
		}
		e.families = append(e.families, family{instrument: ins, points: spec.points})
		observables = append(observables, ins)
	}

	var err error
	e.auditDropped, err = meter.Int64ObservableCounter("authflow.audit.dropped",
		metric.WithDescription("Audit events not delivered, by event type."))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.latency, err = meter.Int64ObservableGauge("authflow.identity_call.latency.bucket",
		metric.WithDescription("Cumulative identity call count at or below the le bound, in seconds."))
	if err != nil {
		return nil, fmt.Errorf("create latency bucket gauge: %w", err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge("authflow.identity_call.latency.count",
		metric.WithDescription("Identity calls timed."))
	if err != nil {
		return nil, fmt.Errorf("create latency count gauge: %w", err)
	}
	for _, le := range internaldefs.HistogramBounds {
		e.latencyLE = append(e.latencyLE, metric.WithAttributes(attribute.String("le", le)))
	}
	observables = append(observables, e.auditDropped, e.latency, e.latencyCount)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, f := range e.families {
		for _, p := range f.points {
			o.ObserveInt64(f.instrument, int64(p.read(snap)), p.attrs)
		}
	}

	dropped := e.source.AuditDroppedByEvent()
	types := make([]string, 0, len(dropped))
	for t := range dropped {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		o.ObserveInt64(e.auditDropped, int64(dropped[t]), metric.WithAttributes(attribute.String("event_type", t)))
	}

	if buckets, ok := snap.Histograms[authflow.MetricRemoteLatency]; ok {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(buckets))
		for i, opt := range e.latencyLE {
			o.ObserveInt64(e.latency, int64(cumulative[i]), opt)
		}
		o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

type familySpec struct {
	name   string
	help   string
	points []point
}

func counter(id authflow.MetricID) reading {
	return func(s authflow.MetricsSnapshot) uint64 { return s.Counters[id] }
}

// difference never goes below zero; the two counters are read at slightly
// different moments.
func difference(a, b authflow.MetricID) reading {
	return func(s authflow.MetricsSnapshot) uint64 {
		if s.Counters[a] < s.Counters[b] {
			return 0
		}
		return s.Counters[a] - s.Counters[b]
	}
}

func attrs(kv ...attribute.KeyValue) metric.ObserveOption {
	return metric.WithAttributeSet(attribute.NewSet(kv...))
}

func familySpecs() []familySpec {
	result := func(v string) attribute.KeyValue { return attribute.String("result", v) }

	signIn := []point{{attrs(result("success")), counter(authflow.MetricSignInSuccess)}}
	for _, cat := range []authflow.SignInFailureCategory{
		authflow.SignInFailureCredentials,
		authflow.SignInFailureRateLimited,
		authflow.SignInFailureOther,
	} {
		cat := cat
		signIn = append(signIn, point{
			attrs(result("failure"), attribute.String("category", cat.String())),
			func(s authflow.MetricsSnapshot) uint64 { return s.SignInFailures[cat] },
		})
	}

	var completions []point
	for _, method := range []authflow.ResetMethod{authflow.ResetMethodOTP, authflow.ResetMethodToken} {
		method := method
		m := attribute.String("method", method.String())
		completions = append(completions,
			point{attrs(m, result("success")), func(s authflow.MetricsSnapshot) uint64 { return s.Resets[method].Succeeded }},
			point{attrs(m, result("failure")), func(s authflow.MetricsSnapshot) uint64 { return s.Resets[method].Failed }},
		)
	}

	kind := func(v string) attribute.KeyValue { return attribute.String("kind", v) }
	delivered := func(v bool) attribute.KeyValue { return attribute.Bool("delivered", v) }
	reason := func(v string) attribute.KeyValue { return attribute.String("reason", v) }

	return []familySpec{
		{
			name:   "authflow.sign_in",
			help:   "Sign-in attempts that reached the identity service, by result and failure category.",
			points: signIn,
		},
		{
			name: "authflow.sign_up",
			help: "Sign-up attempts that reached the identity service, by result.",
			points: []point{
				{attrs(result("success")), counter(authflow.MetricSignUpSuccess)},
				{attrs(result("failure")), counter(authflow.MetricSignUpFailure)},
			},
		},
		{
			name: "authflow.password_reset.code_requests",
			help: "Reset code sends. Users see success either way.",
			points: []point{
				{attrs(kind("request"), delivered(true)), difference(authflow.MetricResetRequested, authflow.MetricResetRequestFailure)},
				{attrs(kind("request"), delivered(false)), counter(authflow.MetricResetRequestFailure)},
				{attrs(kind("resend"), delivered(true)), counter(authflow.MetricResendSuccess)},
				{attrs(kind("resend"), delivered(false)), counter(authflow.MetricResendFailure)},
			},
		},
		{
			name: "authflow.password_reset.codes_accepted",
			help: "Reset codes accepted locally, by how they were entered.",
			points: []point{
				{attrs(attribute.String("via", "link")), counter(authflow.MetricResetAutoSubmit)},
				{attrs(attribute.String("via", "manual")), difference(authflow.MetricResetCodeAccepted, authflow.MetricResetAutoSubmit)},
			},
		},
		{
			name:   "authflow.password_reset.completions",
			help:   "Password resets the identity service answered, by method and result.",
			points: completions,
		},
		{
			name:   "authflow.password_reset.invalid_links",
			help:   "Reset screens opened without usable reset material.",
			points: []point{{attrs(), counter(authflow.MetricInvalidLink)}},
		},
		{
			name: "authflow.actions.rejected",
			help: "Screen actions that produced no identity call or whose result was discarded.",
			points: []point{
				{attrs(reason("validation")), counter(authflow.MetricValidationFailure)},
				{attrs(reason("busy")), counter(authflow.MetricActionBusy)},
				{attrs(reason("abandoned")), counter(authflow.MetricActionAbandoned)},
			},
		},
		{
			name:   "authflow.sign_out",
			help:   "Sign-out calls.",
			points: []point{{attrs(), counter(authflow.MetricSignOut)}},
		},
	}
}
