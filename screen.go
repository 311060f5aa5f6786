package authflow

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/authflow/internal/flows"
)

// screen is the lifetime scope shared by every screen type. Its context is
// cancelled by Close, which also cancels identity calls still in flight.
type screen struct {
	c      *Controller
	ctx    context.Context
	cancel context.CancelFunc

	loading atomic.Bool
	closed  atomic.Bool

	// settle orders Close against a result being applied, so a result is
	// either applied in full or discarded in full.
	settle sync.Mutex

	mu      sync.Mutex
	message string
}

func (c *Controller) openScreen(s *screen) {
	s.c = c
	s.ctx, s.cancel = context.WithCancel(context.Background())
}

// Loading reports whether an action is running.
func (s *screen) Loading() bool {
	return s.loading.Load()
}

// Message returns the text of the last settled action.
func (s *screen) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Close ends the screen. Actions still running are cancelled and their
// results discarded.
func (s *screen) Close() {
	s.settle.Lock()
	closing := s.closed.CompareAndSwap(false, true)
	s.settle.Unlock()
	if closing {
		s.cancel()
	}
}

func (s *screen) setMessage(msg string) {
	s.mu.Lock()
	s.message = msg
	s.mu.Unlock()
}

// run executes one primary action under the screen scope. It rejects overlap
// and drops results that settle after Close. Otherwise apply, when set,
// commits the action's state changes and may rewrite the outcome; then the
// message is stored and the screen navigates to the outcome's route.
//
// action must not change state outside the screen: anything that should not
// survive Close belongs in apply.
func (s *screen) run(action func(ctx context.Context) flows.Outcome, apply func(flows.Outcome) flows.Outcome) Result {
	if s.closed.Load() || s.c.closed.Load() {
		return Result{Abandoned: true, Err: ErrScreenClosed}
	}
	if !s.loading.CompareAndSwap(false, true) {
		s.c.metrics.Inc(MetricActionBusy)
		return Result{Busy: true, Err: ErrBusy}
	}
	defer s.loading.Store(false)

	ctx, cancel := s.c.actionContext(s.ctx)
	defer cancel()

	out := action(ctx)

	s.settle.Lock()
	if s.closed.Load() {
		s.settle.Unlock()
		s.c.metrics.Inc(MetricActionAbandoned)
		return Result{Abandoned: true, Err: ErrScreenClosed}
	}
	if apply != nil {
		out = apply(out)
	}
	s.setMessage(out.Message)
	s.settle.Unlock()

	if out.Route != "" {
		s.c.navigate(Route(out.Route), Params(out.Params))
	}
	return Result{OK: out.OK, Message: out.Message, Err: out.Err}
}

// leave navigates away without an identity call.
func (s *screen) leave(route Route, params Params) Result {
	if s.closed.Load() {
		return Result{Abandoned: true, Err: ErrScreenClosed}
	}
	s.c.navigate(route, params)
	return Result{OK: true}
}
