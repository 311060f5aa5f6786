package authflow

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one controller counter.
type MetricID uint16

const (
	MetricSignInSuccess MetricID = iota
	MetricSignInFailure
	MetricSignUpSuccess
	MetricSignUpFailure
	// MetricValidationFailure counts actions stopped by local validation.
	MetricValidationFailure
	// MetricResetRequested counts reset-code requests, whatever the identity
	// service answered.
	MetricResetRequested
	MetricResetRequestFailure
	MetricResendSuccess
	MetricResendFailure
	MetricResetCodeAccepted
	MetricResetAutoSubmit
	MetricResetSuccess
	MetricResetFailure
	MetricInvalidLink
	// MetricActionAbandoned counts results discarded because the screen closed.
	MetricActionAbandoned
	// MetricActionBusy counts actions rejected while another was running.
	MetricActionBusy
	MetricSignOut
	// MetricRemoteLatency is the latency histogram of identity calls.
	MetricRemoteLatency
	metricIDCount
)

// ResetMethod names the material a password reset was completed with.
type ResetMethod uint8

const (
	ResetMethodOTP ResetMethod = iota
	ResetMethodToken
	resetMethodCount
)

func (m ResetMethod) String() string {
	if m == ResetMethodToken {
		return "token"
	}
	return "otp"
}

// SignInFailureCategory groups rejected sign-ins by the message shown.
type SignInFailureCategory uint8

const (
	SignInFailureCredentials SignInFailureCategory = iota
	SignInFailureRateLimited
	SignInFailureOther
	signInFailureCategoryCount
)

func (c SignInFailureCategory) String() string {
	switch c {
	case SignInFailureCredentials:
		return "invalid_credentials"
	case SignInFailureRateLimited:
		return "rate_limited"
	default:
		return "other"
	}
}

// ResetOutcomes counts identity-backed resets of one method.
type ResetOutcomes struct {
	Succeeded uint64
	Failed    uint64
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil *Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram

	// resets is indexed by method, then 0 for success and 1 for failure.
	resets         [resetMethodCount][2]paddedCounter
	signInFailures [signInFailureCategoryCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64

	Resets         map[ResetMethod]ResetOutcomes
	SignInFailures map[SignInFailureCategory]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
//
// NewMetrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters record.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram records.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// IncReset counts one reset the identity service answered.
func (m *Metrics) IncReset(method ResetMethod, ok bool) {
	if m == nil || !m.enabled || method >= resetMethodCount {
		return
	}
	slot := 1
	if ok {
		slot = 0
	}
	atomic.AddUint64(&m.resets[method][slot].value, 1)
}

// IncSignInFailure counts one rejected sign-in under category.
func (m *Metrics) IncSignInFailure(category SignInFailureCategory) {
	if m == nil || !m.enabled || category >= signInFailureCategoryCount {
		return
	}
	atomic.AddUint64(&m.signInFailures[category].value, 1)
}

// Observe records d in the histogram of id. Only MetricRemoteLatency has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricRemoteLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
//
// Value does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:       map[MetricID]uint64{},
			Histograms:     map[MetricID][]uint64{},
			Resets:         map[ResetMethod]ResetOutcomes{},
			SignInFailures: map[SignInFailureCategory]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:       make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:     make(map[MetricID][]uint64, 1),
		Resets:         make(map[ResetMethod]ResetOutcomes, int(resetMethodCount)),
		SignInFailures: make(map[SignInFailureCategory]uint64, int(signInFailureCategoryCount)),
	}

	for method := ResetMethod(0); method < resetMethodCount; method++ {
		s.Resets[method] = ResetOutcomes{
			Succeeded: atomic.LoadUint64(&m.resets[method][0].value),
			Failed:    atomic.LoadUint64(&m.resets[method][1].value),
		}
	}
	for cat := SignInFailureCategory(0); cat < signInFailureCategoryCount; cat++ {
		s.SignInFailures[cat] = atomic.LoadUint64(&m.signInFailures[cat].value)
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRemoteLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRemoteLatency].buckets[i])
		}
		s.Histograms[MetricRemoteLatency] = buckets
	}

	return s
}

// Identity calls cross the network, so buckets start at 25ms.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
