package authflow

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/session"
)

type call struct {
	op   string
	args []string
}

// fakeService is a scripted identity.Service. A successful sign-in or sign-up
// publishes an authenticated session like a real client library.
type fakeService struct {
	mu     sync.Mutex
	signal *session.Signal
	calls  []call

	signInErr error
	signUpErr error
	sendErr   error
	resetErr  error

	gate    chan struct{}
	started chan struct{}
}

func newFakeService() *fakeService {
	return &fakeService{signal: session.NewSignal(session.State{})}
}

// block makes every identity call wait for release or for its context.
func (f *fakeService) block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
}

func (f *fakeService) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

func (f *fakeService) record(ctx context.Context, op string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, args: args})
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if gate == nil {
		return nil
	}
	select {
	case started <- struct{}{}:
	default:
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) lastCall(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no identity call recorded")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeService) SignInWithPassword(ctx context.Context, email, password string) error {
	if err := f.record(ctx, "sign_in", email, password); err != nil {
		return err
	}
	if f.signInErr != nil {
		return f.signInErr
	}
	f.signal.Publish(session.State{IsAuthenticated: true})
	return nil
}

func (f *fakeService) SignUpWithPassword(ctx context.Context, p identity.SignUpParams) error {
	if err := f.record(ctx, "sign_up", p.Name, p.Email, p.Password); err != nil {
		return err
	}
	if f.signUpErr != nil {
		return f.signUpErr
	}
	f.signal.Publish(session.State{IsAuthenticated: true})
	return nil
}

func (f *fakeService) SendOTP(ctx context.Context, email string, kind identity.OTPType) error {
	if err := f.record(ctx, "send_otp", email, string(kind)); err != nil {
		return err
	}
	return f.sendErr
}

func (f *fakeService) ResetPasswordWithOTP(ctx context.Context, email, otp, newPassword string) error {
	if err := f.record(ctx, "reset_otp", email, otp, newPassword); err != nil {
		return err
	}
	return f.resetErr
}

func (f *fakeService) ResetPasswordWithToken(ctx context.Context, token, newPassword string) error {
	if err := f.record(ctx, "reset_token", token, newPassword); err != nil {
		return err
	}
	return f.resetErr
}

func (f *fakeService) LastUsedLoginMethod(context.Context) (identity.LoginMethod, error) {
	return identity.LoginMethodPassword, nil
}

func (f *fakeService) SignOut(ctx context.Context) error {
	if err := f.record(ctx, "sign_out"); err != nil {
		return err
	}
	f.signal.Publish(session.State{})
	return nil
}

func (f *fakeService) Session() session.Observer {
	return f.signal
}

type visit struct {
	route  Route
	params Params
}

type recordingNavigator struct {
	mu     sync.Mutex
	visits []visit
}

func (n *recordingNavigator) Navigate(route Route, params Params) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.visits = append(n.visits, visit{route: route, params: params})
}

func (n *recordingNavigator) all() []visit {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]visit, len(n.visits))
	copy(out, n.visits)
	return out
}

func (n *recordingNavigator) last(t *testing.T) visit {
	t.Helper()
	visits := n.all()
	if len(visits) == 0 {
		t.Fatal("no navigation recorded")
	}
	return visits[len(visits)-1]
}

func newTestController(t *testing.T, svc *fakeService) (*Controller, *recordingNavigator) {
	t.Helper()
	nav := &recordingNavigator{}
	c, err := New().WithService(svc).WithNavigator(nav).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(c.Close)
	return c, nav
}
