package authflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/sanitize"
	"github.com/MrEthical07/authflow/session"
)

func TestBuildRequiresServiceAndNavigator(t *testing.T) {
	if _, err := New().WithNavigator(&recordingNavigator{}).Build(); err == nil {
		t.Fatal("expected error without service")
	}
	if _, err := New().WithService(newFakeService()).Build(); err == nil {
		t.Fatal("expected error without navigator")
	}

	b := New().WithService(newFakeService()).WithNavigator(&recordingNavigator{})
	c, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestSessionTransitionsNavigate(t *testing.T) {
	svc := newFakeService()
	_, nav := newTestController(t, svc)

	svc.signal.Publish(session.State{IsLoading: true})
	svc.signal.Publish(session.State{IsAuthenticated: true, IsLoading: true})
	if got := len(nav.all()); got != 0 {
		t.Fatalf("loading states navigated %d times", got)
	}

	svc.signal.Publish(session.State{IsAuthenticated: true})
	if v := nav.last(t); v.route != RouteHome {
		t.Fatalf("expected home, got %q", v.route)
	}

	svc.signal.Publish(session.State{})
	if v := nav.last(t); v.route != RouteSignIn {
		t.Fatalf("expected sign-in, got %q", v.route)
	}
	if got := len(nav.all()); got != 2 {
		t.Fatalf("expected 2 navigations, got %d", got)
	}
}

func TestInitialAuthenticatedStateDoesNotNavigate(t *testing.T) {
	svc := newFakeService()
	svc.signal.Publish(session.State{IsAuthenticated: true})
	c, nav := newTestController(t, svc)

	if !c.Authenticated() {
		t.Fatal("expected controller to start authenticated")
	}
	if got := len(nav.all()); got != 0 {
		t.Fatalf("unexpected navigation on build: %d", got)
	}
}

func TestClosedControllerStopsObserving(t *testing.T) {
	svc := newFakeService()
	c, nav := newTestController(t, svc)
	c.Close()

	svc.signal.Publish(session.State{IsAuthenticated: true})
	if got := len(nav.all()); got != 0 {
		t.Fatalf("closed controller navigated %d times", got)
	}
}

func TestSignInSuccessNavigatesThroughSessionSignal(t *testing.T) {
	svc := newFakeService()
	c, nav := newTestController(t, svc)

	res := c.OpenSignIn().SignIn(SignInInput{Email: "  ada@example.com ", Password: "secret1"})
	if !res.OK || res.Err != nil || res.Message != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := svc.lastCall(t); got.args[0] != "ada@example.com" {
		t.Fatalf("email not trimmed: %q", got.args[0])
	}
	if v := nav.last(t); v.route != RouteHome {
		t.Fatalf("expected home, got %q", v.route)
	}
	if got := c.Metrics().Value(MetricSignInSuccess); got != 1 {
		t.Fatalf("sign-in success metric = %d", got)
	}
}

func TestSignInFailureShowsOnlySanitizedMessage(t *testing.T) {
	raws := []string{
		"User not found",
		"AuthApiError: No user with this email",
		"Invalid password for account",
		"WRONG PASSWORD",
		"Invalid Credentials",
	}
	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			svc := newFakeService()
			svc.signInErr = errors.New(raw)
			c, nav := newTestController(t, svc)

			res := c.OpenSignIn().SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
			if res.OK {
				t.Fatal("expected failure")
			}
			if res.Message != sanitize.MsgInvalidCredentials {
				t.Fatalf("message = %q", res.Message)
			}
			if strings.Contains(res.Err.Error(), raw) {
				t.Fatalf("error text repeats raw message: %q", res.Err.Error())
			}
			if !errors.Is(res.Err, ErrRemoteFailure) {
				t.Fatalf("expected ErrRemoteFailure, got %v", res.Err)
			}
			if got := len(nav.all()); got != 0 {
				t.Fatalf("failure navigated %d times", got)
			}
		})
	}
}

func TestSignInPrefersStructuredCode(t *testing.T) {
	svc := newFakeService()
	svc.signInErr = identity.NewError(identity.CodeRateLimited, "user not found")
	c, _ := newTestController(t, svc)

	res := c.OpenSignIn().SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	if res.Message != sanitize.MsgTooManyAttempts {
		t.Fatalf("message = %q", res.Message)
	}
	var remote *RemoteError
	if !errors.As(res.Err, &remote) || remote.Code != identity.CodeRateLimited {
		t.Fatalf("expected RemoteError with code, got %v", res.Err)
	}
}

func TestSignInValidationSkipsIdentityCall(t *testing.T) {
	svc := newFakeService()
	c, _ := newTestController(t, svc)
	scr := c.OpenSignIn()

	res := scr.SignIn(SignInInput{Email: "   ", Password: "secret1"})
	if !errors.Is(res.Err, &ValidationError{Kind: MissingEmail}) || res.Message != sanitize.MsgMissingEmail {
		t.Fatalf("unexpected result %+v", res)
	}
	res = scr.SignIn(SignInInput{Email: "ada@example.com"})
	if !errors.Is(res.Err, &ValidationError{Kind: MissingPassword}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if svc.callCount() != 0 {
		t.Fatalf("identity called %d times", svc.callCount())
	}
	if scr.Message() != sanitize.MsgMissingPassword {
		t.Fatalf("screen message = %q", scr.Message())
	}
}

func TestSignUpDuplicateIsEnumerationSafe(t *testing.T) {
	svc := newFakeService()
	svc.signUpErr = identity.NewError(identity.CodeAccountExists, "user already registered")
	c, nav := newTestController(t, svc)

	res := c.OpenSignUp().SignUp(SignUpInput{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if res.OK || res.Message != sanitize.MsgSignUpFailed {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(nav.all()) != 0 {
		t.Fatal("failure navigated")
	}
}

func TestSignUpSuccess(t *testing.T) {
	svc := newFakeService()
	c, nav := newTestController(t, svc)

	res := c.OpenSignUp().SignUp(SignUpInput{
		Name:            " Ada ",
		Email:           "ada@example.com ",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if !res.OK {
		t.Fatalf("unexpected result %+v", res)
	}
	got := svc.lastCall(t)
	if got.args[0] != "Ada" || got.args[1] != "ada@example.com" {
		t.Fatalf("unexpected sign-up args %v", got.args)
	}
	if v := nav.last(t); v.route != RouteHome {
		t.Fatalf("expected home, got %q", v.route)
	}
}

func TestScreenNavigationActions(t *testing.T) {
	svc := newFakeService()
	c, nav := newTestController(t, svc)

	signIn := c.OpenSignIn()
	signIn.GoToSignUp()
	signIn.GoToForgotPassword()
	c.OpenSignUp().GoToSignIn()

	want := []Route{RouteSignUp, RouteRequestReset, RouteSignIn}
	visits := nav.all()
	if len(visits) != len(want) {
		t.Fatalf("expected %d navigations, got %d", len(want), len(visits))
	}
	for i, route := range want {
		if visits[i].route != route {
			t.Fatalf("navigation %d = %q, want %q", i, visits[i].route, route)
		}
	}
	if svc.callCount() != 0 {
		t.Fatal("navigation made identity calls")
	}
}

func TestLastUsedLoginMethod(t *testing.T) {
	c, _ := newTestController(t, newFakeService())
	if got := c.OpenSignIn().LastUsedLoginMethod(); got != identity.LoginMethodPassword {
		t.Fatalf("method = %q", got)
	}
}

func TestSignOutNavigatesToSignIn(t *testing.T) {
	svc := newFakeService()
	c, nav := newTestController(t, svc)
	c.OpenSignIn().SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})

	if err := c.SignOut(t.Context()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if v := nav.last(t); v.route != RouteSignIn {
		t.Fatalf("expected sign-in, got %q", v.route)
	}
	if c.Authenticated() {
		t.Fatal("controller still authenticated")
	}
}

func TestActionAfterCloseIsAbandoned(t *testing.T) {
	svc := newFakeService()
	svc.block()
	c, nav := newTestController(t, svc)
	scr := c.OpenSignIn()

	done := make(chan Result, 1)
	go func() {
		done <- scr.SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	}()

	select {
	case <-svc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("identity call never started")
	}

	busy := scr.SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	if !busy.Busy || !errors.Is(busy.Err, ErrBusy) {
		t.Fatalf("expected busy result, got %+v", busy)
	}
	if !scr.Loading() {
		t.Fatal("expected screen to be loading")
	}

	scr.Close()
	var res Result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("action did not settle after close")
	}
	if !res.Abandoned || !errors.Is(res.Err, ErrScreenClosed) {
		t.Fatalf("expected abandoned result, got %+v", res)
	}
	if res.Message != "" || scr.Message() != "" {
		t.Fatalf("abandoned result applied a message: %q", scr.Message())
	}
	if len(nav.all()) != 0 {
		t.Fatal("abandoned result navigated")
	}
	if svc.callCount() != 1 {
		t.Fatalf("expected one identity call, got %d", svc.callCount())
	}
	if got := c.Metrics().Value(MetricActionBusy); got != 1 {
		t.Fatalf("busy metric = %d", got)
	}
	if got := c.Metrics().Value(MetricActionAbandoned); got != 1 {
		t.Fatalf("abandoned metric = %d", got)
	}

	after := scr.SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	if !after.Abandoned {
		t.Fatalf("closed screen accepted an action: %+v", after)
	}
}

func TestSpanishMessages(t *testing.T) {
	svc := newFakeService()
	svc.signInErr = errors.New("invalid credentials")
	nav := &recordingNavigator{}
	cfg := DefaultConfig()
	cfg.Language = "es-MX"
	c, err := New().WithConfig(cfg).WithService(svc).WithNavigator(nav).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()

	res := c.OpenSignIn().SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	if res.Message != "Correo o contraseña incorrectos. Inténtalo de nuevo." {
		t.Fatalf("message = %q", res.Message)
	}
	res = c.OpenSignIn().SignIn(SignInInput{Password: "secret1"})
	if res.Message != "Introduce tu correo electrónico." {
		t.Fatalf("validation message = %q", res.Message)
	}
}

func TestAuditEventsMaskSubject(t *testing.T) {
	svc := newFakeService()
	svc.signInErr = identity.NewError(identity.CodeInvalidCredentials, "wrong password")
	sink := NewChannelSink(8)
	nav := &recordingNavigator{}
	c, err := New().WithService(svc).WithNavigator(nav).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()

	c.OpenSignIn().SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})

	select {
	case ev := <-sink.Events():
		if ev.EventType != AuditSignIn || ev.Success {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Subject != "a***@example.com" {
			t.Fatalf("subject not masked: %q", ev.Subject)
		}
		if ev.Code != string(identity.CodeInvalidCredentials) {
			t.Fatalf("code = %q", ev.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event")
	}
}

func TestSignInFailuresCountedByCategory(t *testing.T) {
	svc := newFakeService()
	c, _ := newTestController(t, svc)
	scr := c.OpenSignIn()

	for _, err := range []error{
		identity.NewError(identity.CodeInvalidCredentials, ""),
		errors.New("Invalid Credentials"),
		identity.NewError(identity.CodeRateLimited, ""),
		errors.New("upstream timeout"),
	} {
		svc.signInErr = err
		scr.SignIn(SignInInput{Email: "ada@example.com", Password: "secret1"})
	}

	snap := c.MetricsSnapshot()
	want := map[SignInFailureCategory]uint64{
		SignInFailureCredentials: 2,
		SignInFailureRateLimited: 1,
		SignInFailureOther:       1,
	}
	for cat, n := range want {
		if got := snap.SignInFailures[cat]; got != n {
			t.Fatalf("%s failures = %d, want %d", cat, got, n)
		}
	}
	if got := c.Metrics().Value(MetricSignInFailure); got != 4 {
		t.Fatalf("sign-in failure metric = %d", got)
	}
}

// gatedSink holds the dispatcher worker inside Emit until the gate opens.
type gatedSink struct {
	entered chan struct{}
	gate    chan struct{}
}

func (s *gatedSink) Emit(context.Context, AuditEvent) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.gate
}

func TestAuditDropsReportedByEventType(t *testing.T) {
	svc := newFakeService()
	svc.signInErr = identity.NewError(identity.CodeInvalidCredentials, "")
	svc.signUpErr = identity.NewError(identity.CodeAccountExists, "")
	sink := &gatedSink{entered: make(chan struct{}, 1), gate: make(chan struct{})}

	cfg := DefaultConfig()
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	c, err := New().WithConfig(cfg).WithService(svc).WithNavigator(&recordingNavigator{}).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()
	defer close(sink.gate)

	in := SignInInput{Email: "ada@example.com", Password: "secret1"}
	c.OpenSignIn().SignIn(in)
	select {
	case <-sink.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("audit worker never picked up the first event")
	}
	c.OpenSignIn().SignIn(in)
	c.OpenSignIn().SignIn(in)
	c.OpenSignUp().SignUp(SignUpInput{Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1"})

	got := c.AuditDroppedByEvent()
	if got[AuditSignIn] != 1 || got[AuditSignUp] != 1 {
		t.Fatalf("drops by event = %v", got)
	}
	if c.AuditDropped() != 2 {
		t.Fatalf("total drops = %d", c.AuditDropped())
	}
}
