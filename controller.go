package authflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/flows"
	"github.com/MrEthical07/authflow/sanitize"
	"github.com/MrEthical07/authflow/session"
)

// Controller sequences the authentication screens of one app instance.
type Controller struct {
	cfg       Config
	service   identity.Service
	navigator Navigator
	logger    *slog.Logger
	sanitizer *sanitize.Sanitizer
	metrics   *Metrics
	audit     *audit.Dispatcher

	mu            sync.Mutex
	authenticated bool
	reset         *ResetMachine

	unsubscribe func()
	closed      atomic.Bool
}

func newController(cfg Config, svc identity.Service, nav Navigator, logger *slog.Logger, sink AuditSink) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		cfg:       cfg,
		service:   svc,
		navigator: nav,
		logger:    logger.With(slog.String("component", "authflow")),
		sanitizer: sanitize.ParseLanguage(cfg.Language),
		metrics:   NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink),
	}

	// Holding mu across Subscribe and the initial read keeps an early publish
	// from being compared against an unset baseline.
	c.mu.Lock()
	c.unsubscribe = svc.Session().Subscribe(c.onSession)
	initial := svc.Session().Current()
	c.authenticated = initial.IsAuthenticated && !initial.IsLoading
	c.mu.Unlock()
	return c
}

// onSession navigates on settled authentication changes. Loading states are
// ignored; the initial state never navigates.
func (c *Controller) onSession(state session.State) {
	if c.closed.Load() || state.IsLoading {
		return
	}

	c.mu.Lock()
	was := c.authenticated
	c.authenticated = state.IsAuthenticated
	c.mu.Unlock()

	switch {
	case state.IsAuthenticated && !was:
		c.navigate(RouteHome, nil)
	case !state.IsAuthenticated && was:
		c.clearReset()
		c.navigate(RouteSignIn, nil)
	}
}

// Authenticated reports the last settled session state the controller saw.
func (c *Controller) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// SignOut ends the session. Navigation to the sign-in screen follows the
// session signal.
func (c *Controller) SignOut(ctx context.Context) error {
	if c.closed.Load() {
		return ErrControllerNotReady
	}
	ctx, cancel := c.actionContext(ctx)
	defer cancel()

	err := c.service.SignOut(ctx)
	c.emitAudit(ctx, AuditSignOut, err == nil, "", err, nil)
	if err != nil {
		c.logRemoteFailure(ctx, "sign_out", err)
		return wrapRemote(err)
	}
	c.metrics.Inc(MetricSignOut)
	return nil
}

// Metrics returns the controller's counters.
func (c *Controller) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot returns a point-in-time copy of the controller's counters.
func (c *Controller) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (c *Controller) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// AuditDroppedByEvent reports discarded audit events keyed by event type.
func (c *Controller) AuditDroppedByEvent() map[string]uint64 {
	return c.audit.DroppedByType()
}

// ResetAttempt returns the reset attempt in progress, or nil.
func (c *Controller) ResetAttempt() *ResetMachine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reset
}

// Close unsubscribes from the session signal and flushes pending audit events.
// Screens opened from c keep working until closed but no longer navigate on
// session changes.
func (c *Controller) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.unsubscribe()
	c.audit.Close()
}

func (c *Controller) navigate(route Route, params Params) {
	c.navigator.Navigate(route, params)
}

func (c *Controller) setReset(m *ResetMachine) {
	c.mu.Lock()
	c.reset = m
	c.mu.Unlock()
}

func (c *Controller) clearReset() {
	c.setReset(nil)
}

func (c *Controller) actionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if c.cfg.ActionTimeout > 0 {
		return context.WithTimeout(parent, c.cfg.ActionTimeout)
	}
	return context.WithCancel(parent)
}

func (c *Controller) emitAudit(ctx context.Context, event string, success bool, subject string, err error, metadata func() map[string]string) {
	if c.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: event,
		Subject:   audit.MaskEmail(subject),
		Success:   success,
	}
	if err != nil {
		ev.Code = string(identity.CodeOf(err))
		if ev.Code == "" && errors.Is(err, context.DeadlineExceeded) {
			ev.Code = "timeout"
		}
	}
	if metadata != nil {
		ev.Metadata = metadata()
	}
	c.audit.Emit(ctx, ev)
}

func (c *Controller) logRemoteFailure(ctx context.Context, op string, err error) {
	c.logger.LogAttrs(ctx, slog.LevelDebug, "identity call failed",
		slog.String("op", op),
		slog.String("code", string(identity.CodeOf(err))),
		slog.Any("error", err),
	)
}

func (c *Controller) logTransition(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "reset transition refused",
		slog.String("op", op),
		slog.Any("error", err),
	)
}

// refusedTransition turns a refused reset transition into an outcome the
// screen can display.
func (c *Controller) refusedTransition(ctx context.Context, op string, err error, msg string) flows.Outcome {
	c.logTransition(ctx, op, err)
	return flows.Outcome{Err: err, Message: c.sanitizer.Render(msg)}
}

func (c *Controller) hooks() flows.Hooks {
	return flows.Hooks{
		MetricInc:        func(id int) { c.metrics.Inc(MetricID(id)) },
		ObserveLatency:   func(d time.Duration) { c.metrics.Observe(MetricRemoteLatency, d) },
		EmitAudit:        c.emitAudit,
		LogRemoteFailure: c.logRemoteFailure,
	}
}

func (c *Controller) validationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.sanitizer.Render(ve.message())
	}
	return c.sanitizer.Render(sanitize.MsgSignInFailed)
}

func (c *Controller) signInFlowDeps() flows.SignInDeps {
	return flows.SignInDeps{
		Validate:          ValidateSignIn,
		ValidationMessage: c.validationMessage,
		SignIn:            c.service.SignInWithPassword,
		Sanitize: func(err error) string {
			msg := sanitize.Classify(sanitize.SignIn, err)
			c.metrics.IncSignInFailure(signInFailureCategory(msg))
			return c.sanitizer.Render(msg)
		},
		WrapRemote: wrapRemote,
		Hooks:      c.hooks(),
		Metrics: flows.SignInMetrics{
			Success:           int(MetricSignInSuccess),
			Failure:           int(MetricSignInFailure),
			ValidationFailure: int(MetricValidationFailure),
		},
		Events: flows.SignInEvents{SignIn: AuditSignIn},
		Errors: flows.SignInErrors{NotReady: ErrControllerNotReady},
	}
}

func signInFailureCategory(msg string) SignInFailureCategory {
	switch msg {
	case sanitize.MsgInvalidCredentials:
		return SignInFailureCredentials
	case sanitize.MsgTooManyAttempts:
		return SignInFailureRateLimited
	default:
		return SignInFailureOther
	}
}

func (c *Controller) signUpFlowDeps() flows.SignUpDeps {
	return flows.SignUpDeps{
		Validate: func(req flows.SignUpRequest) error {
			return ValidateSignUp(req.Name, req.Email, req.Password, req.ConfirmPassword)
		},
		ValidationMessage: c.validationMessage,
		SignUp: func(ctx context.Context, name, email, password string) error {
			return c.service.SignUpWithPassword(ctx, identity.SignUpParams{Name: name, Email: email, Password: password})
		},
		Sanitize: func(err error) string {
			return c.sanitizer.SanitizeError(sanitize.SignUp, err)
		},
		WrapRemote: wrapRemote,
		Hooks:      c.hooks(),
		Metrics: flows.SignUpMetrics{
			Success:           int(MetricSignUpSuccess),
			Failure:           int(MetricSignUpFailure),
			ValidationFailure: int(MetricValidationFailure),
		},
		Events: flows.SignUpEvents{SignUp: AuditSignUp},
		Errors: flows.SignUpErrors{NotReady: ErrControllerNotReady},
	}
}

func (c *Controller) passwordResetFlowDeps() flows.PasswordResetDeps {
	return flows.PasswordResetDeps{
		ValidateEmail:       validateEmail,
		ValidateCode:        ValidateResetCode,
		ValidateNewPassword: ValidateNewPassword,
		ValidationMessage:   c.validationMessage,
		SendOTP: func(ctx context.Context, email string) error {
			return c.service.SendOTP(ctx, email, identity.OTPPasswordReset)
		},
		ResetWithOTP:   c.service.ResetPasswordWithOTP,
		ResetWithToken: c.service.ResetPasswordWithToken,
		Sanitize: func(err error) string {
			return c.sanitizer.SanitizeError(sanitize.Reset, err)
		},
		WrapRemote: wrapRemote,
		Hooks:      c.hooks(),
		Messages: flows.PasswordResetMessages{
			Requested:   c.sanitizer.Render(sanitize.MsgResetRequested),
			Resent:      c.sanitizer.Render(sanitize.MsgCodeResent),
			ResentSafe:  c.sanitizer.Render(sanitize.MsgCodeResentSafe),
			Succeeded:   c.sanitizer.Render(sanitize.MsgPasswordUpdated),
			InvalidLink: c.sanitizer.Render(sanitize.MsgInvalidLink),
		},
		Routes: flows.PasswordResetRoutes{
			VerifyCode:    string(RouteVerifyCode),
			ResetPassword: string(RouteResetPassword),
			SignIn:        string(RouteSignIn),
		},
		Params: flows.PasswordResetParams{Email: ParamEmail, OTP: ParamOTP},
		Metrics: flows.PasswordResetMetrics{
			Requested:         int(MetricResetRequested),
			RequestFailed:     int(MetricResetRequestFailure),
			Resent:            int(MetricResendSuccess),
			ResendFailed:      int(MetricResendFailure),
			CodeAccepted:      int(MetricResetCodeAccepted),
			ValidationFailure: int(MetricValidationFailure),
			ResetSuccess:      int(MetricResetSuccess),
			ResetFailure:      int(MetricResetFailure),
		},
		Events: flows.PasswordResetEvents{
			Request: AuditResetRequest,
			Resend:  AuditResetResend,
			Confirm: AuditResetConfirm,
		},
		Errors: flows.PasswordResetErrors{
			NotReady:    ErrControllerNotReady,
			InvalidLink: ErrInvalidLink,
		},
	}
}
