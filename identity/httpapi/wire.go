package httpapi

import (
	"net/http"
	"time"

	"github.com/MrEthical07/authflow/identity"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type resetTokenRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokensResponse struct {
	AccessToken string `json:"access_token"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
}

type sessionResponse struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type errorResponse struct {
	Code    identity.Code `json:"code"`
	Message string        `json:"message"`
}

func toTokensResponse(t identity.Tokens) tokensResponse {
	return tokensResponse{AccessToken: t.AccessToken, SessionID: t.SessionID, UserID: t.UserID}
}

func (t tokensResponse) tokens() identity.Tokens {
	return identity.Tokens{AccessToken: t.AccessToken, SessionID: t.SessionID, UserID: t.UserID}
}

func statusForCode(code identity.Code) int {
	switch code {
	case identity.CodeInvalidCredentials, identity.CodeUnauthenticated:
		return http.StatusUnauthorized
	case identity.CodeAccountExists:
		return http.StatusConflict
	case identity.CodeInvalidEmail, identity.CodeInvalidInput, identity.CodeWeakPassword, identity.CodeInvalidCode:
		return http.StatusBadRequest
	case identity.CodeExpiredCode:
		return http.StatusGone
	case identity.CodeRateLimited:
		return http.StatusTooManyRequests
	case identity.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
