package flows

import (
	"context"
	"strings"
)

// SignUpRequest is the flow-local credential input for sign-up.
type SignUpRequest struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

type SignUpMetrics struct {
	Success           int
	Failure           int
	ValidationFailure int
}

type SignUpEvents struct {
	SignUp string
}

type SignUpErrors struct {
	NotReady error
}

// SignUpDeps captures sign-up dependencies.
type SignUpDeps struct {
	Validate          func(SignUpRequest) error
	ValidationMessage func(error) string
	SignUp            func(ctx context.Context, name, email, password string) error
	Sanitize          func(error) string
	WrapRemote        func(error) error

	Hooks
	Metrics SignUpMetrics
	Events  SignUpEvents
	Errors  SignUpErrors
}

func normalizeSignUpDeps(deps *SignUpDeps) {
	normalizeHooks(&deps.Hooks)
	if deps.ValidationMessage == nil {
		deps.ValidationMessage = func(err error) string { return err.Error() }
	}
	if deps.WrapRemote == nil {
		deps.WrapRemote = identityError
	}
}

// RunSignUp mirrors RunSignIn for account creation.
func RunSignUp(ctx context.Context, req SignUpRequest, deps SignUpDeps) Outcome {
	normalizeSignUpDeps(&deps)
	if deps.Validate == nil || deps.SignUp == nil || deps.Sanitize == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := deps.Validate(req); err != nil {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		return Outcome{Err: err, Message: deps.ValidationMessage(err)}
	}

	err := deps.timed(func() error {
		return deps.SignUp(ctx, req.Name, req.Email, req.Password)
	})
	if err != nil {
		deps.LogRemoteFailure(ctx, "sign_up", err)
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.SignUp, false, req.Email, err, nil)
		return Outcome{Err: deps.WrapRemote(err), Message: deps.Sanitize(err)}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.SignUp, true, req.Email, nil, nil)
	return Outcome{OK: true}
}
