package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/internal/stores"
	"github.com/MrEthical07/authflow/jwt"
	"github.com/MrEthical07/authflow/password"
)

const invalidCredentialsMessage = "invalid email or password"

type signUpRequest struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email,max=320"`
	Password string `validate:"required"`
}

// SignIn verifies email and password and opens a session.
func (e *Engine) SignIn(ctx context.Context, email, pw string) (identity.Tokens, error) {
	email = normalizeEmail(email)
	if email == "" || pw == "" {
		return identity.Tokens{}, identity.NewError(identity.CodeInvalidInput, "email and password are required")
	}

	ip := identity.ClientIPFromContext(ctx)
	if err := e.signIns.CheckSignIn(ctx, email, ip); err != nil {
		return identity.Tokens{}, e.mapLimiterError(ctx, "sign_in", email, err)
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return identity.Tokens{}, e.unavailable(ctx, "sign_in", err)
		}
		e.hasher.VerifyDummy(pw)
		return identity.Tokens{}, e.rejectSignIn(ctx, email, ip)
	}

	ok, err := e.hasher.Verify(pw, user.PasswordHash)
	if err != nil {
		return identity.Tokens{}, e.unavailable(ctx, "sign_in", err)
	}
	if !ok {
		return identity.Tokens{}, e.rejectSignIn(ctx, email, ip)
	}

	if err := e.signIns.ResetSignIn(ctx, email); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "sign-in counter reset failed", slog.String("error", err.Error()))
	}
	e.upgradeHash(ctx, user, pw)

	tokens, err := e.issueSession(ctx, user)
	e.emit(ctx, EventSignIn, email, err, nil)
	return tokens, err
}

func (e *Engine) rejectSignIn(ctx context.Context, email, ip string) error {
	if err := e.signIns.RecordSignInFailure(ctx, email, ip); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "sign-in failure not recorded", slog.String("error", err.Error()))
	}
	rejected := identity.NewError(identity.CodeInvalidCredentials, invalidCredentialsMessage)
	e.emit(ctx, EventSignIn, email, rejected, nil)
	return rejected
}

func (e *Engine) upgradeHash(ctx context.Context, user User, pw string) {
	stale, err := e.hasher.NeedsUpgrade(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := e.hasher.Hash(pw)
	if err != nil {
		return
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "password hash upgrade failed", slog.String("error", err.Error()))
	}
}

// SignUp creates an account and opens a session for it.
func (e *Engine) SignUp(ctx context.Context, params identity.SignUpParams) (identity.Tokens, error) {
	req := signUpRequest{
		Name:     strings.TrimSpace(params.Name),
		Email:    normalizeEmail(params.Email),
		Password: params.Password,
	}
	if err := e.validate.StructCtx(ctx, req); err != nil {
		return identity.Tokens{}, validationError(err)
	}

	if err := e.requests.CheckSignUp(ctx, req.Email, identity.ClientIPFromContext(ctx)); err != nil {
		return identity.Tokens{}, e.mapLimiterError(ctx, "sign_up", req.Email, err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return identity.Tokens{}, passwordPolicyError(err, e.cfg.PasswordMinLength)
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    e.now().UTC(),
	}
	if err := e.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			exists := identity.NewError(identity.CodeAccountExists, "an account with this email already exists")
			e.emit(ctx, EventSignUp, req.Email, exists, nil)
			return identity.Tokens{}, exists
		}
		return identity.Tokens{}, e.unavailable(ctx, "sign_up", err)
	}

	tokens, err := e.issueSession(ctx, user)
	e.emit(ctx, EventSignUp, req.Email, err, nil)
	return tokens, err
}

// SignOut revokes the session behind accessToken.
func (e *Engine) SignOut(ctx context.Context, accessToken string) error {
	claims, err := e.tokens.Parse(accessToken)
	if err != nil {
		return identity.WrapError(identity.CodeUnauthenticated, "session is not valid", err)
	}
	if err := e.sessions.Delete(ctx, claims.SID, claims.UID); err != nil {
		return e.unavailable(ctx, "sign_out", err)
	}
	e.emit(ctx, EventSignOut, "", nil, map[string]string{"user_id": claims.UID})
	return nil
}

// Authenticate returns the claims of a valid, unrevoked access token.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*jwt.Claims, error) {
	claims, err := e.tokens.Parse(accessToken)
	if err != nil {
		return nil, identity.WrapError(identity.CodeUnauthenticated, "session is not valid", err)
	}
	uid, err := e.sessions.UserID(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, stores.ErrSessionNotFound) {
			return nil, identity.NewError(identity.CodeUnauthenticated, "session has been revoked")
		}
		return nil, e.unavailable(ctx, "authenticate", err)
	}
	if uid != claims.UID {
		return nil, identity.NewError(identity.CodeUnauthenticated, "session is not valid")
	}
	return claims, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Email" && fe.Tag() == "email" {
				return identity.NewError(identity.CodeInvalidEmail, "email address is not valid")
			}
		}
		return identity.NewError(identity.CodeInvalidInput, "name, email and password are required")
	}
	return identity.WrapError(identity.CodeInvalidInput, "request is not valid", err)
}

func passwordPolicyError(err error, minLength int) error {
	switch {
	case errors.Is(err, password.ErrTooShort):
		return identity.NewError(identity.CodeWeakPassword, fmt.Sprintf("password must be at least %d characters", minLength))
	case errors.Is(err, password.ErrTooLong):
		return identity.NewError(identity.CodeWeakPassword, "password is too long")
	default:
		return identity.WrapError(identity.CodeUnavailable, genericUnavailable, err)
	}
}
