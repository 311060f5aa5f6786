package authflow

import (
	"fmt"
	"sync"
)

// ResetState is a step of one password-reset attempt.
type ResetState uint8

const (
	ResetRequestingCode ResetState = iota
	ResetAwaitingCode
	ResetAutoSubmitting
	ResetManualSubmitting
	ResetAwaitingNewPassword
	ResetSubmitting
	ResetSucceeded
	ResetBackToSignIn
	ResetInvalidLink
)

func (s ResetState) String() string {
	switch s {
	case ResetRequestingCode:
		return "requesting_code"
	case ResetAwaitingCode:
		return "awaiting_code"
	case ResetAutoSubmitting:
		return "auto_submitting"
	case ResetManualSubmitting:
		return "manual_submitting"
	case ResetAwaitingNewPassword:
		return "awaiting_new_password"
	case ResetSubmitting:
		return "submitting"
	case ResetSucceeded:
		return "succeeded"
	case ResetBackToSignIn:
		return "back_to_sign_in"
	case ResetInvalidLink:
		return "invalid_link"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s ResetState) Terminal() bool {
	return s == ResetSucceeded || s == ResetBackToSignIn || s == ResetInvalidLink
}

var resetTransitions = map[ResetState][]ResetState{
	ResetRequestingCode:      {ResetAwaitingCode, ResetBackToSignIn},
	ResetAwaitingCode:        {ResetAutoSubmitting, ResetManualSubmitting, ResetBackToSignIn},
	ResetAutoSubmitting:      {ResetAwaitingNewPassword},
	ResetManualSubmitting:    {ResetAwaitingNewPassword},
	ResetAwaitingNewPassword: {ResetSubmitting, ResetManualSubmitting, ResetInvalidLink, ResetBackToSignIn},
	ResetSubmitting:          {ResetSucceeded, ResetAwaitingNewPassword},
}

// ResetMachine tracks one reset attempt across the reset screens. It is safe
// for concurrent use.
type ResetMachine struct {
	mu    sync.Mutex
	state ResetState
	email string
}

// NewResetMachine returns a machine positioned at start. Screens entered from
// a deep link start past RequestingCode.
func NewResetMachine(start ResetState) *ResetMachine {
	return &ResetMachine{state: start}
}

// State returns the current step.
func (m *ResetMachine) State() ResetState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Advance moves to next, or returns an error wrapping ErrIllegalTransition and
// leaves the state unchanged.
func (m *ResetMachine) Advance(next ResetState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, allowed := range resetTransitions[m.state] {
		if allowed == next {
			m.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
}

// Email returns the address the attempt is for, when known.
func (m *ResetMachine) Email() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email
}

func (m *ResetMachine) setEmail(email string) {
	m.mu.Lock()
	m.email = email
	m.mu.Unlock()
}
