package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, cfg Config) (*RequestLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewRequestLimiter(rdb, cfg), mr
}

func TestRequestLimiterPerOperation(t *testing.T) {
	l, _ := newLimiter(t, Config{Window: time.Minute, MaxSignUps: 1, MaxResetRequests: 2, MaxResetConfirms: 1})
	ctx := context.Background()

	if err := l.CheckSignUp(ctx, "a@example.com", ""); err != nil {
		t.Fatalf("first sign-up limited: %v", err)
	}
	if err := l.CheckSignUp(ctx, " A@EXAMPLE.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected sign-up limit on normalized email, got %v", err)
	}

	// separate namespaces
	for i := 0; i < 2; i++ {
		if err := l.CheckResetRequest(ctx, "a@example.com", ""); err != nil {
			t.Fatalf("reset request %d limited: %v", i, err)
		}
	}
	if err := l.CheckResetRequest(ctx, "a@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected reset request limit, got %v", err)
	}

	if err := l.CheckResetConfirm(ctx, "afr:otp:abc", ""); err != nil {
		t.Fatalf("first confirm limited: %v", err)
	}
	if err := l.CheckResetConfirm(ctx, "afr:otp:abc", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected confirm limit, got %v", err)
	}
}

func TestRequestLimiterIPAndWindow(t *testing.T) {
	l, mr := newLimiter(t, Config{EnableIPThrottle: true, Window: time.Minute, MaxResetRequests: 1})
	ctx := context.Background()

	if err := l.CheckResetRequest(ctx, "a@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("first request limited: %v", err)
	}
	if err := l.CheckResetRequest(ctx, "b@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP limit, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.CheckResetRequest(ctx, "b@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestRequestLimiterDisabledAndNil(t *testing.T) {
	l, _ := newLimiter(t, Config{Window: time.Minute})
	for i := 0; i < 5; i++ {
		if err := l.CheckSignUp(context.Background(), "a@example.com", ""); err != nil {
			t.Fatalf("zero max must disable limit, got %v", err)
		}
	}
	var nilLimiter *RequestLimiter
	if err := nilLimiter.CheckResetConfirm(context.Background(), "x", "y"); err != nil {
		t.Fatalf("nil limiter must allow, got %v", err)
	}
}

func TestRequestLimiterRedisDown(t *testing.T) {
	l, mr := newLimiter(t, Config{Window: time.Minute, MaxSignUps: 3})
	mr.Close()
	if err := l.CheckSignUp(context.Background(), "a@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
