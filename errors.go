package authflow

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/sanitize"
)

var (
	// ErrControllerNotReady is returned when an action runs on a controller
	// that was not produced by Builder.Build or has been closed.
	ErrControllerNotReady = errors.New("authflow: controller not ready")
	// ErrScreenClosed is carried by results whose screen closed first.
	ErrScreenClosed = errors.New("authflow: screen closed")
	// ErrBusy is carried by results rejected because an action was running.
	ErrBusy = errors.New("authflow: action already in progress")
	// ErrInvalidLink marks a reset screen opened without usable reset material.
	ErrInvalidLink = errors.New("authflow: invalid reset link")
	// ErrIllegalTransition is returned for reset state changes the flow does
	// not allow.
	ErrIllegalTransition = errors.New("authflow: illegal reset state transition")
	// ErrRemoteFailure is matched by every error the identity service returned.
	ErrRemoteFailure = errors.New("authflow: identity service failure")
)

// ValidationKind identifies a local input problem.
type ValidationKind uint8

const (
	MissingEmail ValidationKind = iota + 1
	MissingPassword
	MissingName
	PasswordMismatch
	PasswordTooShort
	InvalidCodeLength
)

func (k ValidationKind) String() string {
	switch k {
	case MissingEmail:
		return "missing_email"
	case MissingPassword:
		return "missing_password"
	case MissingName:
		return "missing_name"
	case PasswordMismatch:
		return "password_mismatch"
	case PasswordTooShort:
		return "password_too_short"
	case InvalidCodeLength:
		return "invalid_code_length"
	default:
		return "unknown"
	}
}

// ValidationError reports the first local input problem of a form. Min is set
// for PasswordTooShort.
type ValidationError struct {
	Kind ValidationKind
	Min  int
}

func (e *ValidationError) Error() string {
	if e.Kind == PasswordTooShort {
		return fmt.Sprintf("authflow: %s (min %d)", e.Kind, e.Min)
	}
	return "authflow: " + e.Kind.String()
}

// Is matches another *ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) || other == nil {
		return false
	}
	return e.Kind == other.Kind
}

// message returns the base-locale text shown for the problem.
func (e *ValidationError) message() string {
	switch e.Kind {
	case MissingEmail:
		return sanitize.MsgMissingEmail
	case MissingPassword:
		return sanitize.MsgMissingPassword
	case MissingName:
		return sanitize.MsgMissingName
	case PasswordMismatch:
		return sanitize.MsgPasswordMismatch
	case PasswordTooShort:
		return sanitize.MsgPasswordTooShort
	default:
		return sanitize.MsgInvalidCodeLength
	}
}

// RemoteError wraps a failure returned by the identity service. Its Error
// text names only the structured code so that logging a Result never repeats
// the provider's wording.
type RemoteError struct {
	Code identity.Code
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return ErrRemoteFailure.Error()
	}
	return ErrRemoteFailure.Error() + " (" + string(e.Code) + ")"
}

func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteFailure, e.Err}
}

func wrapRemote(err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Code: identity.CodeOf(err), Err: err}
}
