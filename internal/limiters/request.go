package limiters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("request rate limited")
	ErrRedisUnavailable = errors.New("limiter redis unavailable")
)

type Config struct {
	EnableIPThrottle bool
	Window           time.Duration
	MaxSignUps       int
	MaxResetRequests int
	MaxResetConfirms int
}

type RequestLimiter struct {
	redis  redis.UniversalClient
	config Config
}

func NewRequestLimiter(redisClient redis.UniversalClient, cfg Config) *RequestLimiter {
	return &RequestLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *RequestLimiter) CheckSignUp(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "afsu", normalizeEmail(email), ip, l.config.MaxSignUps)
}

func (l *RequestLimiter) CheckResetRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "afrr", normalizeEmail(email), ip, l.config.MaxResetRequests)
}

// CheckResetConfirm throttles confirmations. subject is the challenge key the
// caller is trying to consume, so guessing across many codes for one email
// shares one budget.
func (l *RequestLimiter) CheckResetConfirm(ctx context.Context, subject, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "afrc", subject, ip, l.config.MaxResetConfirms)
}

func (l *RequestLimiter) check(ctx context.Context, prefix, subject, ip string, max int) error {
	if max <= 0 {
		return nil
	}
	if subject != "" {
		if err := l.enforceFixedWindow(ctx, prefix+":"+subject, max); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, prefix+"ip:"+ip, max); err != nil {
			return err
		}
	}
	return nil
}

func (l *RequestLimiter) enforceFixedWindow(ctx context.Context, key string, max int) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count > int64(max) {
		return ErrRateLimited
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
