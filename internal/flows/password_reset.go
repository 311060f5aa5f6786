package flows

import (
	"context"
	"strings"
)

// PasswordResetMetrics carries metric IDs used by the reset flows.
type PasswordResetMetrics struct {
	Requested         int
	RequestFailed     int
	Resent            int
	ResendFailed      int
	CodeAccepted      int
	ValidationFailure int
	ResetSuccess      int
	ResetFailure      int
}

// PasswordResetEvents carries audit event names used by the reset flows.
type PasswordResetEvents struct {
	Request string
	Resend  string
	Confirm string
}

// PasswordResetErrors carries host-level sentinel errors used by the reset flows.
type PasswordResetErrors struct {
	NotReady    error
	InvalidLink error
}

// PasswordResetMessages are the fixed, already rendered texts the reset flows
// show. None of them depends on whether the account exists.
type PasswordResetMessages struct {
	Requested   string
	Resent      string
	ResentSafe  string
	Succeeded   string
	InvalidLink string
}

// PasswordResetRoutes names the screens reset flows navigate to.
type PasswordResetRoutes struct {
	VerifyCode    string
	ResetPassword string
	SignIn        string
}

// PasswordResetParams names the navigation parameter keys.
type PasswordResetParams struct {
	Email string
	OTP   string
}

// ResetRequest is the flow-local input of the final reset step. Exactly one
// of Token or Email+OTP is expected.
type ResetRequest struct {
	Token           string
	Email           string
	OTP             string
	NewPassword     string
	ConfirmPassword string
}

// PasswordResetDeps captures dependencies shared by every reset step.
type PasswordResetDeps struct {
	ValidateEmail       func(email string) error
	ValidateCode        func(code string) error
	ValidateNewPassword func(password, confirm string) error
	ValidationMessage   func(error) string

	SendOTP        func(ctx context.Context, email string) error
	ResetWithOTP   func(ctx context.Context, email, otp, newPassword string) error
	ResetWithToken func(ctx context.Context, token, newPassword string) error

	Sanitize   func(error) string
	WrapRemote func(error) error

	Hooks
	Messages PasswordResetMessages
	Routes   PasswordResetRoutes
	Params   PasswordResetParams
	Metrics  PasswordResetMetrics
	Events   PasswordResetEvents
	Errors   PasswordResetErrors
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
	normalizeHooks(&deps.Hooks)
	if deps.ValidationMessage == nil {
		deps.ValidationMessage = func(err error) string { return err.Error() }
	}
	if deps.WrapRemote == nil {
		deps.WrapRemote = identityError
	}
	if deps.Params.Email == "" {
		deps.Params.Email = "email"
	}
	if deps.Params.OTP == "" {
		deps.Params.OTP = "otp"
	}
}

func (deps PasswordResetDeps) invalid(err error) Outcome {
	deps.MetricInc(deps.Metrics.ValidationFailure)
	return Outcome{Err: err, Message: deps.ValidationMessage(err)}
}

// RunRequestPasswordReset sends a reset code and always continues to the
// verify-code screen with the same message, whatever the identity service
// answered. Only an empty email stops it.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordResetDeps) Outcome {
	normalizePasswordResetDeps(&deps)
	if deps.ValidateEmail == nil || deps.SendOTP == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	email = strings.TrimSpace(email)
	if err := deps.ValidateEmail(email); err != nil {
		return deps.invalid(err)
	}

	err := deps.timed(func() error {
		return deps.SendOTP(ctx, email)
	})
	if err != nil {
		deps.LogRemoteFailure(ctx, "reset_request", err)
		deps.MetricInc(deps.Metrics.RequestFailed)
	}
	deps.MetricInc(deps.Metrics.Requested)
	deps.EmitAudit(ctx, deps.Events.Request, err == nil, email, err, func() map[string]string {
		return map[string]string{"enumeration_safe": "true"}
	})

	return Outcome{
		OK:      true,
		Message: deps.Messages.Requested,
		Route:   deps.Routes.VerifyCode,
		Params:  map[string]string{deps.Params.Email: email},
	}
}

// RunResendResetCode asks for another code. Both outcomes read as success.
func RunResendResetCode(ctx context.Context, email string, deps PasswordResetDeps) Outcome {
	normalizePasswordResetDeps(&deps)
	if deps.ValidateEmail == nil || deps.SendOTP == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	email = strings.TrimSpace(email)
	if err := deps.ValidateEmail(email); err != nil {
		return deps.invalid(err)
	}

	err := deps.timed(func() error {
		return deps.SendOTP(ctx, email)
	})
	deps.EmitAudit(ctx, deps.Events.Resend, err == nil, email, err, nil)
	if err != nil {
		deps.LogRemoteFailure(ctx, "reset_resend", err)
		deps.MetricInc(deps.Metrics.ResendFailed)
		return Outcome{OK: true, Message: deps.Messages.ResentSafe}
	}
	deps.MetricInc(deps.Metrics.Resent)
	return Outcome{OK: true, Message: deps.Messages.Resent}
}

// RunVerifyResetCode checks the code shape only. The identity service sees
// the code for the first time in RunResetPassword.
func RunVerifyResetCode(email, code string, deps PasswordResetDeps) Outcome {
	normalizePasswordResetDeps(&deps)
	if deps.ValidateEmail == nil || deps.ValidateCode == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if err := deps.ValidateEmail(email); err != nil {
		return deps.invalid(err)
	}
	if err := deps.ValidateCode(code); err != nil {
		return deps.invalid(err)
	}

	deps.MetricInc(deps.Metrics.CodeAccepted)
	return Outcome{
		OK:     true,
		Route:  deps.Routes.ResetPassword,
		Params: map[string]string{deps.Params.Email: email, deps.Params.OTP: code},
	}
}

// RunResetPassword validates the new password and exchanges the token or the
// email+code pair for a password change. A request carrying neither shape
// fails with Errors.InvalidLink before any remote call.
func RunResetPassword(ctx context.Context, req ResetRequest, deps PasswordResetDeps) Outcome {
	normalizePasswordResetDeps(&deps)
	if deps.ValidateNewPassword == nil || deps.ResetWithOTP == nil || deps.ResetWithToken == nil || deps.Sanitize == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	useToken := req.Token != ""
	if !useToken && (req.Email == "" || req.OTP == "") {
		return Outcome{Err: deps.Errors.InvalidLink, Message: deps.Messages.InvalidLink}
	}
	if err := deps.ValidateNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return deps.invalid(err)
	}

	method := "otp"
	if useToken {
		method = "token"
	}
	err := deps.timed(func() error {
		if useToken {
			return deps.ResetWithToken(ctx, req.Token, req.NewPassword)
		}
		return deps.ResetWithOTP(ctx, req.Email, req.OTP, req.NewPassword)
	})
	meta := func() map[string]string { return map[string]string{"method": method} }
	if err != nil {
		deps.LogRemoteFailure(ctx, "reset_confirm", err)
		deps.MetricInc(deps.Metrics.ResetFailure)
		deps.EmitAudit(ctx, deps.Events.Confirm, false, req.Email, err, meta)
		return Outcome{Err: deps.WrapRemote(err), Message: deps.Sanitize(err)}
	}

	deps.MetricInc(deps.Metrics.ResetSuccess)
	deps.EmitAudit(ctx, deps.Events.Confirm, true, req.Email, nil, meta)
	return Outcome{OK: true, Message: deps.Messages.Succeeded, Route: deps.Routes.SignIn}
}
