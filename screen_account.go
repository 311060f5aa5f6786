package authflow

import (
	"context"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/internal/flows"
)

// SignInScreen is the password sign-in screen.
type SignInScreen struct {
	screen
}

// OpenSignIn opens the sign-in screen.
func (c *Controller) OpenSignIn() *SignInScreen {
	s := &SignInScreen{}
	c.openScreen(&s.screen)
	return s
}

// SignIn validates in and makes one sign-in call. Success leaves the screen
// as is; the session signal drives navigation to the home screen.
func (s *SignInScreen) SignIn(in SignInInput) Result {
	return s.run(func(ctx context.Context) flows.Outcome {
		return flows.RunSignIn(ctx, in.Email, in.Password, s.c.signInFlowDeps())
	}, nil)
}

// LastUsedLoginMethod returns the method of the last successful sign-in on
// this device, or identity.LoginMethodNone when unknown.
func (s *SignInScreen) LastUsedLoginMethod() identity.LoginMethod {
	ctx, cancel := s.c.actionContext(s.ctx)
	defer cancel()

	method, err := s.c.service.LastUsedLoginMethod(ctx)
	if err != nil {
		s.c.logRemoteFailure(ctx, "last_used_login_method", err)
		return identity.LoginMethodNone
	}
	return method
}

// GoToSignUp navigates to the sign-up screen.
func (s *SignInScreen) GoToSignUp() Result {
	return s.leave(RouteSignUp, nil)
}

// GoToForgotPassword navigates to the reset request screen.
func (s *SignInScreen) GoToForgotPassword() Result {
	return s.leave(RouteRequestReset, nil)
}

// SignUpScreen is the account creation screen.
type SignUpScreen struct {
	screen
}

// OpenSignUp opens the sign-up screen.
func (c *Controller) OpenSignUp() *SignUpScreen {
	s := &SignUpScreen{}
	c.openScreen(&s.screen)
	return s
}

// SignUp validates in and makes one sign-up call, with the same contract as
// SignInScreen.SignIn.
func (s *SignUpScreen) SignUp(in SignUpInput) Result {
	return s.run(func(ctx context.Context) flows.Outcome {
		return flows.RunSignUp(ctx, flows.SignUpRequest{
			Name:            in.Name,
			Email:           in.Email,
			Password:        in.Password,
			ConfirmPassword: in.ConfirmPassword,
		}, s.c.signUpFlowDeps())
	}, nil)
}

// GoToSignIn navigates to the sign-in screen.
func (s *SignUpScreen) GoToSignIn() Result {
	return s.leave(RouteSignIn, nil)
}
