package flows

import (
	"context"
	"time"
)

// Outcome is the flow-local result of one screen action. A non-empty Route
// asks the screen to navigate once the action settles.
type Outcome struct {
	OK      bool
	Message string
	Err     error
	Route   string
	Params  map[string]string
}

// Hooks carries the ambient side channels every flow reports through.
type Hooks struct {
	MetricInc        func(int)
	ObserveLatency   func(time.Duration)
	EmitAudit        func(ctx context.Context, event string, success bool, subject string, err error, metadata func() map[string]string)
	LogRemoteFailure func(ctx context.Context, op string, err error)
	Now              func() time.Time
}

func normalizeHooks(h *Hooks) {
	if h.MetricInc == nil {
		h.MetricInc = func(int) {}
	}
	if h.ObserveLatency == nil {
		h.ObserveLatency = func(time.Duration) {}
	}
	if h.EmitAudit == nil {
		h.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if h.LogRemoteFailure == nil {
		h.LogRemoteFailure = func(context.Context, string, error) {}
	}
	if h.Now == nil {
		h.Now = time.Now
	}
}

// timed runs call and reports its latency.
func (h Hooks) timed(call func() error) error {
	start := h.Now()
	err := call()
	h.ObserveLatency(h.Now().Sub(start))
	return err
}

func identityError(err error) error { return err }
