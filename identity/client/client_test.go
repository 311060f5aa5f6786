package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/session"
)

type fakeBackend struct {
	signInErr  error
	signOutErr error
	signedOut  []string
	resetEmail string
}

func (f *fakeBackend) SignIn(_ context.Context, email, _ string) (identity.Tokens, error) {
	if f.signInErr != nil {
		return identity.Tokens{}, f.signInErr
	}
	return identity.Tokens{AccessToken: "tok-" + email, SessionID: "s", UserID: "u"}, nil
}

func (f *fakeBackend) SignUp(_ context.Context, p identity.SignUpParams) (identity.Tokens, error) {
	return identity.Tokens{AccessToken: "tok-" + p.Email}, nil
}

func (f *fakeBackend) SendResetOTP(_ context.Context, email string) error {
	f.resetEmail = email
	return nil
}

func (f *fakeBackend) ResetWithOTP(context.Context, string, string, string) error { return nil }
func (f *fakeBackend) ResetWithToken(context.Context, string, string) error       { return nil }

func (f *fakeBackend) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return f.signOutErr
}

type recorder struct {
	mu     sync.Mutex
	states []session.State
}

func (r *recorder) record(s session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []session.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.State(nil), r.states...)
}

func TestSignInPublishesLoadingThenAuthenticated(t *testing.T) {
	c := New(&fakeBackend{})
	rec := &recorder{}
	defer c.Session().Subscribe(rec.record)()

	if err := c.SignInWithPassword(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	want := []session.State{{IsLoading: true}, {IsAuthenticated: true}}
	got := rec.snapshot()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("states = %+v, want %+v", got, want)
	}
	if c.AccessToken() != "tok-a@example.com" {
		t.Fatalf("unexpected token %q", c.AccessToken())
	}
	method, _ := c.LastUsedLoginMethod(context.Background())
	if method != identity.LoginMethodPassword {
		t.Fatalf("expected password login method, got %q", method)
	}
}

func TestSignInFailureSettlesSignal(t *testing.T) {
	backendErr := identity.NewError(identity.CodeInvalidCredentials, "nope")
	c := New(&fakeBackend{signInErr: backendErr})

	err := c.SignInWithPassword(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, backendErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if st := c.Session().Current(); st != (session.State{}) {
		t.Fatalf("expected signed-out idle state, got %+v", st)
	}
	if method, _ := c.LastUsedLoginMethod(context.Background()); method != identity.LoginMethodNone {
		t.Fatalf("failed sign-in must not record a method, got %q", method)
	}
}

func TestSignOutClearsStateEvenOnRevokedSession(t *testing.T) {
	backend := &fakeBackend{signOutErr: identity.NewError(identity.CodeUnauthenticated, "gone")}
	c := New(backend, WithSession("restored", identity.LoginMethodPassword))
	if !c.Session().Current().IsAuthenticated {
		t.Fatal("restored session should start authenticated")
	}

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if c.Session().Current().IsAuthenticated || c.AccessToken() != "" {
		t.Fatal("expected local sign-out")
	}
	if len(backend.signedOut) != 1 || backend.signedOut[0] != "restored" {
		t.Fatalf("expected remote sign-out with restored token, got %v", backend.signedOut)
	}
	if method, _ := c.LastUsedLoginMethod(context.Background()); method != identity.LoginMethodPassword {
		t.Fatal("last used method must survive sign-out")
	}
}

func TestSignOutReportsBackendFailure(t *testing.T) {
	backend := &fakeBackend{signOutErr: identity.NewError(identity.CodeUnavailable, "down")}
	c := New(backend, WithSession("t", identity.LoginMethodPassword))

	if err := c.SignOut(context.Background()); identity.CodeOf(err) != identity.CodeUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if c.Session().Current().IsAuthenticated {
		t.Fatal("local state must be cleared regardless")
	}
}

func TestSendOTPRejectsUnknownType(t *testing.T) {
	backend := &fakeBackend{}
	c := New(backend)
	if err := c.SendOTP(context.Background(), "a@example.com", identity.OTPType("magic")); identity.CodeOf(err) != identity.CodeInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if err := c.SendOTP(context.Background(), "a@example.com", identity.OTPPasswordReset); err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if backend.resetEmail != "a@example.com" {
		t.Fatalf("backend saw %q", backend.resetEmail)
	}
}
