package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/authflow/identity"
)

const maxResponseBody = 1 << 20

// Remote is an identity.Backend served by a Handler elsewhere.
type Remote struct {
	baseURL string
	http    *http.Client
}

var _ identity.Backend = (*Remote)(nil)

// NewRemote returns a Remote for baseURL. A nil client gets a 10s timeout.
func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), http: client}
}

func (r *Remote) SignIn(ctx context.Context, email, password string) (identity.Tokens, error) {
	var out tokensResponse
	err := r.do(ctx, "/v1/sign-in", "", signInRequest{Email: email, Password: password}, &out)
	return out.tokens(), err
}

func (r *Remote) SignUp(ctx context.Context, p identity.SignUpParams) (identity.Tokens, error) {
	var out tokensResponse
	err := r.do(ctx, "/v1/sign-up", "", signUpRequest{Name: p.Name, Email: p.Email, Password: p.Password}, &out)
	return out.tokens(), err
}

func (r *Remote) SendResetOTP(ctx context.Context, email string) error {
	return r.do(ctx, "/v1/password-reset", "", resetRequest{Email: email}, nil)
}

func (r *Remote) ResetWithOTP(ctx context.Context, email, otp, newPassword string) error {
	return r.do(ctx, "/v1/password-reset/otp", "", resetOTPRequest{Email: email, OTP: otp, NewPassword: newPassword}, nil)
}

func (r *Remote) ResetWithToken(ctx context.Context, token, newPassword string) error {
	return r.do(ctx, "/v1/password-reset/token", "", resetTokenRequest{Token: token, NewPassword: newPassword}, nil)
}

func (r *Remote) SignOut(ctx context.Context, accessToken string) error {
	return r.do(ctx, "/v1/sign-out", accessToken, struct{}{}, nil)
}

func (r *Remote) do(ctx context.Context, path, bearer string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return identity.WrapError(identity.CodeInvalidInput, "request could not be encoded", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return identity.WrapError(identity.CodeUnavailable, "request could not be built", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return identity.WrapError(identity.CodeUnavailable, "identity service unreachable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return identity.WrapError(identity.CodeUnavailable, "identity service response truncated", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return identity.WrapError(identity.CodeUnavailable, "identity service response malformed", err)
	}
	return nil
}

func decodeError(status int, payload []byte) error {
	var e errorResponse
	if err := json.Unmarshal(payload, &e); err != nil || e.Code == "" {
		return identity.NewError(identity.CodeUnavailable, fmt.Sprintf("identity service returned status %d", status))
	}
	return identity.NewError(e.Code, e.Message)
}
