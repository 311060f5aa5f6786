package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/internal/audit"
	"github.com/MrEthical07/authflow/internal/limiters"
	"github.com/MrEthical07/authflow/internal/rate"
	"github.com/MrEthical07/authflow/internal/stores"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/password"
)

// Audit event types emitted by the engine.
const (
	EventSignIn       = "identity_sign_in"
	EventSignUp       = "identity_sign_up"
	EventResetRequest = "identity_reset_request"
	EventResetConfirm = "identity_reset_confirm"
	EventSignOut      = "identity_sign_out"
	EventRateLimited  = "identity_rate_limited"
)

const (
	resetCodeDigits    = 6
	genericUnavailable = "service temporarily unavailable"
)

// Engine implements identity.Backend.
type Engine struct {
	cfg      Config
	users    UserStore
	mailer   Mailer
	logger   *slog.Logger
	hasher   *password.Argon2
	tokens   *jwt.Manager
	resets   *stores.PasswordResetStore
	sessions *stores.SessionStore
	signIns  *rate.Limiter
	requests *limiters.RequestLimiter
	audit    *audit.Dispatcher
	validate *validator.Validate
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

var _ identity.Backend = (*Engine)(nil)

// Option customizes an Engine.
type Option func(*Engine)

// WithMailer replaces the default LogMailer.
func WithMailer(m Mailer) Option {
	return func(e *Engine) { e.mailer = m }
}

// WithLogger sets the logger used for internal failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithAuditSink enables audit events delivered to sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(e *Engine) {
		e.audit = audit.NewDispatcher(audit.Config{Enabled: true, BufferSize: e.cfg.AuditBuffer, DropIfFull: true}, sink)
	}
}

// WithClock overrides time.Now for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New wires an engine. cfg is validated after defaults are applied.
func New(cfg Config, rdb redis.UniversalClient, users UserStore, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rdb == nil || users == nil {
		return nil, errors.New("engine: redis client and user store are required")
	}

	pwCfg := password.DefaultConfig()
	pwCfg.Memory = cfg.Argon2MemoryKB
	pwCfg.Time = cfg.Argon2Time
	pwCfg.MinLength = cfg.PasswordMinLength
	hasher, err := password.NewArgon2(pwCfg)
	if err != nil {
		return nil, fmt.Errorf("engine: password hasher: %w", err)
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.SessionTTL,
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWTMethod)),
		PrivateKey:    []byte(cfg.JWTKey),
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: token manager: %w", err)
	}

	e := &Engine{
		cfg:      cfg,
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		resets:   stores.NewPasswordResetStore(rdb, cfg.RedisPrefix+"r"),
		sessions: stores.NewSessionStore(rdb, cfg.RedisPrefix+"s"),
		signIns: rate.New(rdb, rate.Config{
			EnableIPThrottle:  cfg.EnableIPThrottle,
			MaxSignInAttempts: cfg.MaxSignInFailures,
			SignInCooldown:    cfg.SignInCooldown,
		}),
		requests: limiters.NewRequestLimiter(rdb, limiters.Config{
			EnableIPThrottle: cfg.EnableIPThrottle,
			Window:           cfg.RequestWindow,
			MaxSignUps:       cfg.MaxSignUps,
			MaxResetRequests: cfg.MaxResetRequests,
			MaxResetConfirms: cfg.MaxResetConfirms,
		}),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.mailer == nil {
		e.mailer = LogMailer{Logger: e.logger}
	}
	e.resets.WithClock(e.now)
	return e, nil
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	e.audit.Close()
}

func (e *Engine) emit(ctx context.Context, eventType, subject string, err error, meta map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, audit.Event{
		Timestamp: e.now(),
		EventType: eventType,
		Subject:   audit.MaskEmail(subject),
		IP:        identity.ClientIPFromContext(ctx),
		Success:   err == nil,
		Code:      string(identity.CodeOf(err)),
		Metadata:  meta,
	})
}

// unavailable logs cause and returns the opaque error callers see.
func (e *Engine) unavailable(ctx context.Context, op string, cause error) error {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	e.logger.LogAttrs(ctx, slog.LevelError, "identity operation failed",
		slog.String("op", op),
		slog.String("error", cause.Error()),
	)
	return identity.WrapError(identity.CodeUnavailable, genericUnavailable, cause)
}

func (e *Engine) mapLimiterError(ctx context.Context, op, subject string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) || errors.Is(err, limiters.ErrRateLimited) {
		rl := identity.NewError(identity.CodeRateLimited, "too many attempts, try again later")
		e.emit(ctx, EventRateLimited, subject, rl, map[string]string{"op": op})
		return rl
	}
	return e.unavailable(ctx, op, err)
}

func (e *Engine) issueSession(ctx context.Context, user User) (identity.Tokens, error) {
	sessionID := uuid.NewString()
	if err := e.sessions.Create(ctx, sessionID, user.ID, e.cfg.SessionTTL); err != nil {
		return identity.Tokens{}, e.unavailable(ctx, "session_create", err)
	}
	token, err := e.tokens.Issue(user.ID, sessionID, e.now())
	if err != nil {
		_ = e.sessions.Delete(ctx, sessionID, user.ID)
		return identity.Tokens{}, e.unavailable(ctx, "token_issue", err)
	}
	return identity.Tokens{AccessToken: token, SessionID: sessionID, UserID: user.ID}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e *Engine) enumerationDelay(ctx context.Context) error {
	d := e.cfg.EnumerationDelayMin
	if spread := e.cfg.EnumerationDelayMax - e.cfg.EnumerationDelayMin; spread > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(spread)))
		if err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return e.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
