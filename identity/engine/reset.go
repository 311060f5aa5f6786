package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/authflow/deeplink"
	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/internal"
	"github.com/MrEthical07/authflow/internal/stores"
)

// SendResetOTP issues a reset code and link for email. It returns nil for
// unknown emails.
func (e *Engine) SendResetOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := e.validate.VarCtx(ctx, email, "required,email"); err != nil {
		return identity.NewError(identity.CodeInvalidEmail, "email address is not valid")
	}

	if err := e.requests.CheckResetRequest(ctx, email, identity.ClientIPFromContext(ctx)); err != nil {
		return e.mapLimiterError(ctx, "reset_request", email, err)
	}

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return e.unavailable(ctx, "reset_request", err)
		}
		if err := e.enumerationDelay(ctx); err != nil {
			return err
		}
		e.emit(ctx, EventResetRequest, email, nil, map[string]string{"enumeration_safe": "true"})
		return nil
	}

	msg, err := e.issueResetChallenges(ctx, user)
	if err != nil {
		e.emit(ctx, EventResetRequest, email, err, nil)
		return err
	}
	if err := e.mailer.SendPasswordReset(ctx, msg); err != nil {
		return e.unavailable(ctx, "reset_mail", err)
	}
	e.emit(ctx, EventResetRequest, email, nil, nil)
	return nil
}

func (e *Engine) issueResetChallenges(ctx context.Context, user User) (ResetMessage, error) {
	code, err := internal.NewOTP(resetCodeDigits)
	if err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_generate", err)
	}
	resetID, err := internal.NewResetID()
	if err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_generate", err)
	}
	secret, err := internal.NewResetSecret()
	if err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_generate", err)
	}
	token, err := internal.EncodeResetToken(resetID.String(), secret)
	if err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_generate", err)
	}

	otpKey := e.resets.OTPKey(user.Email)
	tokenKey := e.resets.TokenKey(resetID.String())

	// A new request supersedes the previous link.
	if prev, err := e.resets.Get(ctx, otpKey); err == nil && prev.Sibling != "" {
		if err := e.resets.Delete(ctx, prev.Sibling); err != nil {
			return ResetMessage{}, e.unavailable(ctx, "reset_supersede", err)
		}
	}

	expiresAt := e.now().Add(e.cfg.ResetTTL)
	otpRecord := &stores.PasswordResetRecord{
		UserID:     user.ID,
		Kind:       stores.ResetKindOTP,
		SecretHash: internal.HashOTP(otpKey, code),
		ExpiresAt:  expiresAt.Unix(),
		Sibling:    tokenKey,
	}
	tokenRecord := &stores.PasswordResetRecord{
		UserID:     user.ID,
		Kind:       stores.ResetKindToken,
		SecretHash: internal.HashResetSecret(secret),
		ExpiresAt:  expiresAt.Unix(),
		Sibling:    otpKey,
	}
	if err := e.resets.Save(ctx, tokenKey, tokenRecord, e.cfg.ResetTTL); err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_save", err)
	}
	if err := e.resets.Save(ctx, otpKey, otpRecord, e.cfg.ResetTTL); err != nil {
		_ = e.resets.Delete(ctx, tokenKey)
		return ResetMessage{}, e.unavailable(ctx, "reset_save", err)
	}

	link, err := deeplink.Build(e.cfg.ResetLinkBase, deeplink.Link{Token: token})
	if err != nil {
		return ResetMessage{}, e.unavailable(ctx, "reset_link", err)
	}
	return ResetMessage{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		Link:      link,
		ExpiresAt: expiresAt,
	}, nil
}

// ResetWithOTP sets a new password using the emailed code.
func (e *Engine) ResetWithOTP(ctx context.Context, email, otp, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || !isCode(otp) {
		return identity.NewError(identity.CodeInvalidCode, "invalid code")
	}
	if err := e.hasher.CheckPolicy(newPassword); err != nil {
		return passwordPolicyError(err, e.cfg.PasswordMinLength)
	}

	key := e.resets.OTPKey(email)
	return e.confirmReset(ctx, key, internal.HashOTP(key, otp), newPassword)
}

// ResetWithToken sets a new password using the link token.
func (e *Engine) ResetWithToken(ctx context.Context, token, newPassword string) error {
	resetID, secret, err := internal.DecodeResetToken(token)
	if err != nil {
		return identity.NewError(identity.CodeInvalidCode, "invalid token")
	}
	if err := e.hasher.CheckPolicy(newPassword); err != nil {
		return passwordPolicyError(err, e.cfg.PasswordMinLength)
	}

	return e.confirmReset(ctx, e.resets.TokenKey(resetID), internal.HashResetSecret(secret), newPassword)
}

func (e *Engine) confirmReset(ctx context.Context, key string, secretHash [32]byte, newPassword string) error {
	if err := e.requests.CheckResetConfirm(ctx, key, identity.ClientIPFromContext(ctx)); err != nil {
		return e.mapLimiterError(ctx, "reset_confirm", "", err)
	}

	record, err := e.resets.Consume(ctx, key, secretHash, e.cfg.ResetMaxAttempts)
	if err != nil {
		mapped := e.mapResetStoreError(ctx, err)
		e.emit(ctx, EventResetConfirm, "", mapped, nil)
		return mapped
	}

	user, err := e.users.GetUserByID(ctx, record.UserID)
	if err != nil {
		return e.unavailable(ctx, "reset_confirm", err)
	}
	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return passwordPolicyError(err, e.cfg.PasswordMinLength)
	}
	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return e.unavailable(ctx, "reset_confirm", err)
	}

	if _, err := e.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "session revocation after reset failed", slog.String("error", err.Error()))
	}
	if err := e.signIns.ResetSignIn(ctx, user.Email); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "sign-in counter reset failed", slog.String("error", err.Error()))
	}
	e.emit(ctx, EventResetConfirm, user.Email, nil, nil)
	return nil
}

func (e *Engine) mapResetStoreError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, stores.ErrResetExpired):
		return identity.NewError(identity.CodeExpiredCode, "code has expired")
	case errors.Is(err, stores.ErrResetNotFound),
		errors.Is(err, stores.ErrResetSecretMismatch),
		errors.Is(err, stores.ErrResetAttemptsExceeded):
		return identity.NewError(identity.CodeInvalidCode, "invalid code")
	default:
		return e.unavailable(ctx, "reset_confirm", err)
	}
}

func isCode(s string) bool {
	if len(s) != resetCodeDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
