package identity

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable failure category.
type Code string

const (
	// CodeInvalidCredentials covers unknown accounts and wrong passwords alike.
	CodeInvalidCredentials Code = "invalid_credentials"
	// CodeAccountExists is reported by sign-up for an already registered email.
	CodeAccountExists Code = "account_exists"
	// CodeInvalidEmail is reported when an email address is malformed.
	CodeInvalidEmail Code = "invalid_email"
	// CodeInvalidInput is reported when required fields are missing.
	CodeInvalidInput Code = "invalid_input"
	// CodeWeakPassword is reported when a password violates the backend policy.
	CodeWeakPassword Code = "weak_password"
	// CodeInvalidCode is reported for a wrong or unknown reset code or token.
	CodeInvalidCode Code = "invalid_code"
	// CodeExpiredCode is reported for a reset code or token past its lifetime.
	CodeExpiredCode Code = "expired_code"
	// CodeRateLimited is reported when a throttle rejects the request.
	CodeRateLimited Code = "rate_limited"
	// CodeUnauthenticated is reported when a session token is missing or revoked.
	CodeUnauthenticated Code = "unauthenticated"
	// CodeUnavailable is reported when a backend dependency fails.
	CodeUnavailable Code = "unavailable"
)

// Error is a structured identity failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError returns an *Error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError returns an *Error for code that wraps cause.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return string(e.Code) + ": " + e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code, so sentinel-style comparisons
// like errors.Is(err, identity.NewError(identity.CodeRateLimited, "")) work.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return e.Code == other.Code
}

// CodeOf returns the code carried by err, or "" when err has none.
func CodeOf(err error) Code {
	var identityErr *Error
	if errors.As(err, &identityErr) && identityErr != nil {
		return identityErr.Code
	}
	return ""
}
