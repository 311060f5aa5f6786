package authflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/authflow/deeplink"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/sanitize"
)

// RequestResetScreen asks for the email a reset code is sent to.
type RequestResetScreen struct {
	screen
}

// OpenRequestReset opens the reset request screen.
func (c *Controller) OpenRequestReset() *RequestResetScreen {
	s := &RequestResetScreen{}
	c.openScreen(&s.screen)
	return s
}

// RequestPasswordReset starts a new reset attempt. Whatever the identity
// service answers, the result is OK, the message is the same, and the screen
// navigates to the verify-code screen with the trimmed email. Only an empty
// email is rejected.
func (s *RequestResetScreen) RequestPasswordReset(email string) Result {
	return s.run(func(ctx context.Context) flows.Outcome {
		return flows.RunRequestPasswordReset(ctx, email, s.c.passwordResetFlowDeps())
	}, func(out flows.Outcome) flows.Outcome {
		if !out.OK {
			return out
		}
		m := NewResetMachine(ResetRequestingCode)
		m.setEmail(out.Params[ParamEmail])
		s.c.logTransition(s.ctx, "request_reset", m.Advance(ResetAwaitingCode))
		s.c.setReset(m)
		return out
	})
}

// BackToSignIn abandons the attempt.
func (s *RequestResetScreen) BackToSignIn() Result {
	s.c.clearReset()
	return s.leave(RouteSignIn, nil)
}

// VerifyCodeScreen collects the emailed code. The code is only checked for
// shape here; the identity service sees it with the new password.
type VerifyCodeScreen struct {
	screen
	machine *ResetMachine

	autoOnce      sync.Once
	autoSubmitted atomic.Bool
}

// OpenVerifyCode opens the verify-code screen. params carries the email and,
// when the screen is opened from a reset link, the code. With both present and
// a well-formed code the screen submits once on its own and navigates to the
// reset-password screen.
func (c *Controller) OpenVerifyCode(params Params) *VerifyCodeScreen {
	link := deeplink.FromParams(params)

	s := &VerifyCodeScreen{}
	c.openScreen(&s.screen)

	m := c.ResetAttempt()
	if m == nil || m.State() != ResetAwaitingCode {
		m = NewResetMachine(ResetAwaitingCode)
		c.setReset(m)
	}
	if link.Email != "" {
		m.setEmail(link.Email)
	}
	s.machine = m

	if link.Email != "" && ValidateResetCode(link.OTP) == nil {
		s.autoSubmit(link.OTP)
	}
	return s
}

func (s *VerifyCodeScreen) autoSubmit(code string) {
	s.autoOnce.Do(func() {
		res := s.submit(ResetAutoSubmitting, code)
		if res.OK {
			s.autoSubmitted.Store(true)
			s.c.metrics.Inc(MetricResetAutoSubmit)
		}
	})
}

// AutoSubmitted reports whether the screen submitted a code from its link.
func (s *VerifyCodeScreen) AutoSubmitted() bool {
	return s.autoSubmitted.Load()
}

// Email returns the address the code was sent to.
func (s *VerifyCodeScreen) Email() string {
	return s.machine.Email()
}

// State returns the step of the reset attempt.
func (s *VerifyCodeScreen) State() ResetState {
	return s.machine.State()
}

// VerifyResetCode checks that code is six digits and navigates to the
// reset-password screen carrying the email and the code. It makes no identity
// call. A code may be submitted again after an earlier one was accepted, for
// instance after returning from the reset-password screen to correct a typo.
func (s *VerifyCodeScreen) VerifyResetCode(code string) Result {
	return s.submit(ResetManualSubmitting, code)
}

func (s *VerifyCodeScreen) submit(via ResetState, code string) Result {
	return s.run(func(context.Context) flows.Outcome {
		return flows.RunVerifyResetCode(s.machine.Email(), code, s.c.passwordResetFlowDeps())
	}, func(out flows.Outcome) flows.Outcome {
		if !out.OK {
			return out
		}
		if err := s.machine.Advance(via); err != nil {
			return s.c.refusedTransition(s.ctx, "verify_reset_code", err, sanitize.MsgInvalidCode)
		}
		if err := s.machine.Advance(ResetAwaitingNewPassword); err != nil {
			return s.c.refusedTransition(s.ctx, "verify_reset_code", err, sanitize.MsgInvalidCode)
		}
		return out
	})
}

// ResendResetCode sends another code to the screen's email. Both outcomes
// are reported as success with one of two fixed messages.
func (s *VerifyCodeScreen) ResendResetCode() Result {
	return s.run(func(ctx context.Context) flows.Outcome {
		return flows.RunResendResetCode(ctx, s.machine.Email(), s.c.passwordResetFlowDeps())
	}, nil)
}

// BackToSignIn abandons the attempt.
func (s *VerifyCodeScreen) BackToSignIn() Result {
	s.c.logTransition(s.ctx, "back_to_sign_in", s.machine.Advance(ResetBackToSignIn))
	s.c.clearReset()
	return s.leave(RouteSignIn, nil)
}

// ResetPasswordScreen collects the new password and completes the reset.
type ResetPasswordScreen struct {
	screen
	machine *ResetMachine
	flow    ResetFlow
	invalid bool
}

// OpenResetPassword opens the reset-password screen. params must carry either
// a token or an email and code. Anything else, including a link the backend
// marked INVALID_TOKEN, puts the screen in the terminal invalid-link state
// without an identity call.
func (c *Controller) OpenResetPassword(params Params) *ResetPasswordScreen {
	link := deeplink.FromParams(params)

	s := &ResetPasswordScreen{}
	c.openScreen(&s.screen)

	m := c.ResetAttempt()
	if m == nil || m.State() != ResetAwaitingNewPassword {
		m = NewResetMachine(ResetAwaitingNewPassword)
		c.setReset(m)
	}
	s.machine = m

	flow, ok := ResetFlowFromLink(link)
	if !ok {
		c.logTransition(s.ctx, "open_reset_password", m.Advance(ResetInvalidLink))
		s.invalid = true
		c.metrics.Inc(MetricInvalidLink)
		c.emitAudit(s.ctx, AuditInvalidLink, false, link.Email, nil, func() map[string]string {
			return map[string]string{"kind": link.Kind().String()}
		})
		s.setMessage(c.sanitizer.Render(sanitize.MsgInvalidLink))
		return s
	}
	if otp, isOTP := flow.(OTPFlow); isOTP {
		m.setEmail(otp.Email)
	}
	s.flow = flow
	return s
}

// InvalidLink reports whether the screen is in the invalid-link state.
func (s *ResetPasswordScreen) InvalidLink() bool {
	return s.invalid
}

// Flow returns the reset material, or nil on an invalid link.
func (s *ResetPasswordScreen) Flow() ResetFlow {
	return s.flow
}

// State returns the step of the reset attempt.
func (s *ResetPasswordScreen) State() ResetState {
	return s.machine.State()
}

// ResetPassword validates the new password and completes the reset with the
// screen's token or code. Success navigates to the sign-in screen; a failure
// leaves the screen ready for another try.
func (s *ResetPasswordScreen) ResetPassword(newPassword, confirmPassword string) Result {
	if s.invalid {
		return Result{Err: ErrInvalidLink, Message: s.Message()}
	}

	req := flows.ResetRequest{NewPassword: newPassword, ConfirmPassword: confirmPassword}
	switch f := s.flow.(type) {
	case TokenFlow:
		req.Token = f.Token
	case OTPFlow:
		req.Email = f.Email
		req.OTP = f.OTP
	}

	deps := s.c.passwordResetFlowDeps()
	withOTP, withToken := deps.ResetWithOTP, deps.ResetWithToken
	deps.ResetWithOTP = func(ctx context.Context, email, otp, password string) error {
		if err := s.machine.Advance(ResetSubmitting); err != nil {
			return err
		}
		err := withOTP(ctx, email, otp, password)
		s.c.metrics.IncReset(ResetMethodOTP, err == nil)
		return err
	}
	deps.ResetWithToken = func(ctx context.Context, token, password string) error {
		if err := s.machine.Advance(ResetSubmitting); err != nil {
			return err
		}
		err := withToken(ctx, token, password)
		s.c.metrics.IncReset(ResetMethodToken, err == nil)
		return err
	}

	return s.run(func(ctx context.Context) flows.Outcome {
		// Checked under the busy flag: a call overlapping a submission is
		// reported busy, not refused.
		if state := s.machine.State(); state != ResetAwaitingNewPassword {
			err := fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, state, ResetSubmitting)
			return s.c.refusedTransition(ctx, "reset_password", err, sanitize.MsgInvalidLink)
		}
		return flows.RunResetPassword(ctx, req, deps)
	}, func(out flows.Outcome) flows.Outcome {
		if s.machine.State() != ResetSubmitting {
			return out
		}
		if out.OK {
			s.c.logTransition(s.ctx, "reset_password", s.machine.Advance(ResetSucceeded))
			s.c.clearReset()
		} else {
			s.c.logTransition(s.ctx, "reset_password", s.machine.Advance(ResetAwaitingNewPassword))
		}
		return out
	})
}

// RequestNewCode leaves a failed or invalid attempt for the reset request
// screen.
func (s *ResetPasswordScreen) RequestNewCode() Result {
	s.c.clearReset()
	return s.leave(RouteRequestReset, nil)
}

// BackToSignIn abandons the attempt.
func (s *ResetPasswordScreen) BackToSignIn() Result {
	s.c.logTransition(s.ctx, "back_to_sign_in", s.machine.Advance(ResetBackToSignIn))
	s.c.clearReset()
	return s.leave(RouteSignIn, nil)
}
