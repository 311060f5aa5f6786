package session

import "sync"

// State is a point-in-time view of the authentication session.
type State struct {
	IsAuthenticated bool
	IsLoading       bool
}

// Observer is the read-only side of a [Signal].
type Observer interface {
	Current() State
	// Subscribe registers fn for every published state change and returns a
	// function that removes the subscription. The returned function is safe to
	// call more than once.
	Subscribe(fn func(State)) (unsubscribe func())
}

// Signal is a push-based observable session state. The zero value is not
// usable; construct with [NewSignal].
type Signal struct {
	mu     sync.Mutex
	state  State
	nextID uint64
	subs   map[uint64]func(State)
}

// NewSignal returns a Signal holding the initial state.
func NewSignal(initial State) *Signal {
	return &Signal{
		state: initial,
		subs:  make(map[uint64]func(State)),
	}
}

// Current returns the latest published state.
func (s *Signal) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe implements [Observer].
func (s *Signal) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Publish replaces the current state and notifies subscribers when it changed.
// Subscribers run synchronously on the publishing goroutine, outside the lock.
func (s *Signal) Publish(next State) {
	s.mu.Lock()
	if s.state == next {
		s.mu.Unlock()
		return
	}
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
