package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/identity/engine"
	"github.com/MrEthical07/authflow/identity/engine/sqlitestore"
	"github.com/MrEthical07/authflow/identity/httpapi"
	"github.com/MrEthical07/authflow/sanitize"
)

type lastMail struct {
	mu  sync.Mutex
	msg engine.ResetMessage
}

func (l *lastMail) SendPasswordReset(_ context.Context, msg engine.ResetMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = msg
	return nil
}

func (l *lastMail) get() engine.ResetMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.msg
}

func newBackend(t *testing.T) (string, *lastMail) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users, err := sqlitestore.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = users.Close() })

	mail := &lastMail{}
	eng, err := engine.New(engine.Config{
		JWTKey:              "0123456789abcdef0123456789abcdef",
		Argon2MemoryKB:      8 * 1024,
		Argon2Time:          1,
		EnumerationDelayMin: time.Millisecond,
		EnumerationDelayMax: time.Millisecond,
		MaxSignUps:          10,
		MaxResetRequests:    10,
		MaxResetConfirms:    10,
	}, rdb, users, engine.WithMailer(mail))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(eng.Close)

	srv := httptest.NewServer(httpapi.NewHandler(eng))
	t.Cleanup(srv.Close)
	return srv.URL, mail
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSignUpThenResetWithCode(t *testing.T) {
	server, mail := newBackend(t)

	out, err := execute(t, "signup", "--server", server, "--name", "Ada", "--email", "ada@example.com", "--password", "secret1")
	if err != nil {
		t.Fatalf("signup: %v\n%s", err, out)
	}
	if !strings.Contains(out, "access token:") || !strings.Contains(out, "-> home") {
		t.Fatalf("unexpected signup output:\n%s", out)
	}

	out, err = execute(t, "reset", "request", "--server", server, "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("reset request: %v\n%s", err, out)
	}
	if !strings.Contains(out, sanitize.MsgResetRequested) {
		t.Fatalf("unexpected reset request output:\n%s", out)
	}

	code := mail.get().Code
	out, err = execute(t, "reset", "confirm", "--server", server, "--email", "ada@example.com", "--otp", code, "--password", "n3wpass")
	if err != nil {
		t.Fatalf("reset confirm: %v\n%s", err, out)
	}
	if !strings.Contains(out, "-> sign-in") {
		t.Fatalf("expected navigation to sign-in:\n%s", out)
	}

	if out, err := execute(t, "signin", "--server", server, "--email", "ada@example.com", "--password", "n3wpass"); err != nil {
		t.Fatalf("signin with new password: %v\n%s", err, out)
	}
}

func TestSignInFailureIsSanitized(t *testing.T) {
	server, _ := newBackend(t)

	out, err := execute(t, "signin", "--server", server, "--email", "nobody@example.com", "--password", "whatever1", "--metrics")
	if err == nil {
		t.Fatalf("expected failure:\n%s", out)
	}
	if !strings.Contains(out, sanitize.MsgInvalidCredentials) {
		t.Fatalf("expected sanitized message:\n%s", out)
	}
	if !strings.Contains(out, "authflow_sign_in_failure_total 1") {
		t.Fatalf("expected metrics output:\n%s", out)
	}
}

func TestResetConfirmInvalidLink(t *testing.T) {
	out, err := execute(t, "reset", "confirm", "--server", "http://127.0.0.1:1", "--link", "authflow://reset-password?error=INVALID_TOKEN", "--password", "n3wpass")
	if err == nil || !strings.Contains(out, sanitize.MsgInvalidLink) {
		t.Fatalf("expected invalid link, got %v:\n%s", err, out)
	}
}

func TestResetConfirmParams(t *testing.T) {
	o := &resetConfirmOptions{email: " a@example.com", otp: "123456"}
	p, err := o.params()
	if err != nil {
		t.Fatal(err)
	}
	if p[authflow.ParamEmail] != " a@example.com" || p[authflow.ParamOTP] != "123456" {
		t.Fatalf("unexpected params %v", p)
	}

	o = &resetConfirmOptions{link: "authflow://reset-password?token=abc"}
	if p, err = o.params(); err != nil || p[authflow.ParamToken] != "abc" {
		t.Fatalf("link params: %v %v", p, err)
	}
}

func TestComputeStats(t *testing.T) {
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(100-i) * time.Millisecond
	}
	s := computeStats(time.Second, samples, 3)
	if s.ops != 100 || s.failures != 3 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.p50 != 50*time.Millisecond || s.p99 != 99*time.Millisecond {
		t.Fatalf("unexpected percentiles p50=%s p99=%s", s.p50, s.p99)
	}
	if empty := computeStats(time.Second, nil, 1); empty.ops != 0 || empty.failures != 1 {
		t.Fatalf("unexpected empty stats %+v", empty)
	}
}
