package identity

import (
	"context"

	"github.com/MrEthical07/authflow/session"
)

// OTPType selects what a one-time code authorizes.
type OTPType string

const (
	// OTPPasswordReset authorizes a password change.
	OTPPasswordReset OTPType = "password-reset"
)

// LoginMethod names how a device last signed in.
type LoginMethod string

const (
	// LoginMethodNone means the device has no recorded sign-in.
	LoginMethodNone LoginMethod = ""
	// LoginMethodPassword is email + password sign-in.
	LoginMethodPassword LoginMethod = "password"
)

// SignUpParams is the account creation payload.
type SignUpParams struct {
	Name     string
	Email    string
	Password string
}

// Tokens is what a backend hands back after a successful sign-in or sign-up.
type Tokens struct {
	AccessToken string
	SessionID   string
	UserID      string
}

// Service is the identity surface consumed by authentication flows. All
// methods honor ctx cancellation.
type Service interface {
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUpWithPassword(ctx context.Context, params SignUpParams) error
	SendOTP(ctx context.Context, email string, kind OTPType) error
	ResetPasswordWithOTP(ctx context.Context, email, otp, newPassword string) error
	ResetPasswordWithToken(ctx context.Context, token, newPassword string) error
	LastUsedLoginMethod(ctx context.Context) (LoginMethod, error)
	SignOut(ctx context.Context) error
	Session() session.Observer
}

// Backend is the stateless server side of the identity contract.
type Backend interface {
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	SignUp(ctx context.Context, params SignUpParams) (Tokens, error)
	SendResetOTP(ctx context.Context, email string) error
	ResetWithOTP(ctx context.Context, email, otp, newPassword string) error
	ResetWithToken(ctx context.Context, token, newPassword string) error
	SignOut(ctx context.Context, accessToken string) error
}
