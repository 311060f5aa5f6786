package flows

import (
	"context"
	"strings"
)

// SignInMetrics carries metric IDs used by the sign-in flow.
type SignInMetrics struct {
	Success           int
	Failure           int
	ValidationFailure int
}

// SignInEvents carries audit event names used by the sign-in flow.
type SignInEvents struct {
	SignIn string
}

// SignInErrors carries host-level sentinel errors used by the sign-in flow.
type SignInErrors struct {
	NotReady error
}

// SignInDeps captures sign-in dependencies.
type SignInDeps struct {
	Validate          func(email, password string) error
	ValidationMessage func(error) string
	SignIn            func(ctx context.Context, email, password string) error
	Sanitize          func(error) string
	WrapRemote        func(error) error

	Hooks
	Metrics SignInMetrics
	Events  SignInEvents
	Errors  SignInErrors
}

func normalizeSignInDeps(deps *SignInDeps) {
	normalizeHooks(&deps.Hooks)
	if deps.ValidationMessage == nil {
		deps.ValidationMessage = func(err error) string { return err.Error() }
	}
	if deps.WrapRemote == nil {
		deps.WrapRemote = identityError
	}
}

// RunSignIn validates credentials locally and performs one sign-in call. On
// success the outcome carries no route: navigation follows the session signal.
func RunSignIn(ctx context.Context, email, password string, deps SignInDeps) Outcome {
	normalizeSignInDeps(&deps)
	if deps.Validate == nil || deps.SignIn == nil || deps.Sanitize == nil {
		return Outcome{Err: deps.Errors.NotReady}
	}

	email = strings.TrimSpace(email)
	if err := deps.Validate(email, password); err != nil {
		deps.MetricInc(deps.Metrics.ValidationFailure)
		return Outcome{Err: err, Message: deps.ValidationMessage(err)}
	}

	err := deps.timed(func() error {
		return deps.SignIn(ctx, email, password)
	})
	if err != nil {
		deps.LogRemoteFailure(ctx, "sign_in", err)
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.SignIn, false, email, err, nil)
		return Outcome{Err: deps.WrapRemote(err), Message: deps.Sanitize(err)}
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.SignIn, true, email, nil, nil)
	return Outcome{OK: true}
}
