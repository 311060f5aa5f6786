// Package client adapts an identity.Backend into an identity.Service. It owns
// the device-side session: the access token, the last used login method and
// the session signal flows observe.
package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/session"
)

// Client is safe for concurrent use.
type Client struct {
	backend identity.Backend
	signal  *session.Signal
	logger  *slog.Logger

	mu          sync.Mutex
	accessToken string
	lastMethod  identity.LoginMethod
}

var _ identity.Service = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for sign-out failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSession restores a previously persisted session. A non-empty token
// starts the client authenticated.
func WithSession(accessToken string, method identity.LoginMethod) Option {
	return func(c *Client) {
		c.accessToken = accessToken
		c.lastMethod = method
	}
}

// New returns a signed-out client unless WithSession says otherwise.
func New(backend identity.Backend, opts ...Option) *Client {
	c := &Client{backend: backend}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.signal = session.NewSignal(session.State{IsAuthenticated: c.accessToken != ""})
	return c
}

// Session returns the observable session state.
func (c *Client) Session() session.Observer {
	return c.signal
}

// AccessToken returns the current token, or "" when signed out.
func (c *Client) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	return c.authenticate(func() (identity.Tokens, error) {
		return c.backend.SignIn(ctx, email, password)
	})
}

func (c *Client) SignUpWithPassword(ctx context.Context, params identity.SignUpParams) error {
	return c.authenticate(func() (identity.Tokens, error) {
		return c.backend.SignUp(ctx, params)
	})
}

// authenticate publishes a loading state around call and settles the signal
// on its outcome.
func (c *Client) authenticate(call func() (identity.Tokens, error)) error {
	prev := c.signal.Current()
	c.signal.Publish(session.State{IsAuthenticated: prev.IsAuthenticated, IsLoading: true})

	tokens, err := call()
	if err != nil {
		c.signal.Publish(session.State{IsAuthenticated: prev.IsAuthenticated})
		return err
	}

	c.mu.Lock()
	c.accessToken = tokens.AccessToken
	c.lastMethod = identity.LoginMethodPassword
	c.mu.Unlock()
	c.signal.Publish(session.State{IsAuthenticated: true})
	return nil
}

func (c *Client) SendOTP(ctx context.Context, email string, kind identity.OTPType) error {
	if kind != identity.OTPPasswordReset {
		return identity.NewError(identity.CodeInvalidInput, "unsupported otp type")
	}
	return c.backend.SendResetOTP(ctx, email)
}

func (c *Client) ResetPasswordWithOTP(ctx context.Context, email, otp, newPassword string) error {
	return c.backend.ResetWithOTP(ctx, email, otp, newPassword)
}

func (c *Client) ResetPasswordWithToken(ctx context.Context, token, newPassword string) error {
	return c.backend.ResetWithToken(ctx, token, newPassword)
}

// LastUsedLoginMethod survives sign-out so the sign-in screen can hint at it.
func (c *Client) LastUsedLoginMethod(ctx context.Context) (identity.LoginMethod, error) {
	if err := ctx.Err(); err != nil {
		return identity.LoginMethodNone, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMethod, nil
}

// SignOut always clears local state. A backend failure other than an
// already-invalid session is returned after the local sign-out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.accessToken
	c.accessToken = ""
	c.mu.Unlock()

	var err error
	if token != "" {
		err = c.backend.SignOut(ctx, token)
		if identity.CodeOf(err) == identity.CodeUnauthenticated {
			err = nil
		}
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "remote sign-out failed", slog.String("error", err.Error()))
		}
	}
	c.signal.Publish(session.State{})
	return err
}
