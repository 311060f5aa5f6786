package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MrEthical07/authflow/identity"
	"golang.org/x/text/language"
)

func TestSignInCredentialFailuresCollapse(t *testing.T) {
	needles := []string{"user not found", "no user", "invalid password", "wrong password", "invalid credentials"}
	wrappers := []string{"%s", "Error: %s", "[CONVEX A(auth:signIn)] %s.", "Uncaught Error: %s at handler"}

	for _, needle := range needles {
		for _, variant := range []string{needle, strings.ToUpper(needle), strings.ToUpper(needle[:1]) + needle[1:]} {
			for _, wrap := range wrappers {
				raw := fmt.Sprintf(wrap, variant)
				got := Sanitize(SignIn, raw)
				if got != MsgInvalidCredentials {
					t.Fatalf("Sanitize(SignIn, %q) = %q, want %q", raw, got, MsgInvalidCredentials)
				}
				for _, leaked := range needles {
					if strings.Contains(strings.ToLower(got), leaked) {
						t.Fatalf("sanitized output %q leaks %q", got, leaked)
					}
				}
			}
		}
	}
}

func TestSanitizeFallbacks(t *testing.T) {
	cases := []struct {
		ctx  Context
		raw  string
		want string
	}{
		{SignIn, "", MsgSignInFailed},
		{SignIn, "network request failed", MsgSignInFailed},
		{SignIn, "Too many requests", MsgTooManyAttempts},
		{SignUp, "", MsgSignUpFailed},
		{SignUp, "Account user@example.com already exists", MsgSignUpFailed},
		{SignUp, "Invalid email format", MsgInvalidEmail},
		{SignUp, "Password is too weak", MsgWeakPassword},
		{SignUp, "server exploded", MsgSignUpFailed},
		{ResetRequest, "user not found", MsgResetRequested},
		{ResetRequest, "", MsgResetRequested},
		{Resend, "user not found", MsgCodeResentSafe},
		{Reset, "OTP expired", MsgInvalidCode},
		{Reset, "Invalid code", MsgInvalidCode},
		{Reset, "Could not verify token", MsgInvalidCode},
		{Reset, "Password must be at least 8 characters", MsgWeakPassword},
		{Reset, "internal error", MsgResetFailed},
		{Reset, "", MsgResetFailed},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.ctx, tc.raw); got != tc.want {
			t.Fatalf("Sanitize(%s, %q) = %q, want %q", tc.ctx, tc.raw, got, tc.want)
		}
	}
}

func TestSanitizeIsTotal(t *testing.T) {
	inputs := []string{"", " ", "\x00", "💥", strings.Repeat("a", 10000), "%s %d %!", "TOKEN"}
	for _, ctx := range []Context{SignIn, SignUp, ResetRequest, Resend, Reset, Context(200)} {
		allowed := map[string]bool{}
		for _, msg := range Messages(ctx) {
			allowed[msg] = true
		}
		for _, raw := range inputs {
			got := Sanitize(ctx, raw)
			if got == "" {
				t.Fatalf("Sanitize(%s, %q) returned empty string", ctx, raw)
			}
			if !allowed[got] {
				t.Fatalf("Sanitize(%s, %q) = %q outside the context message set", ctx, raw, got)
			}
		}
	}
}

func TestSanitizeErrorPrefersStructuredCode(t *testing.T) {
	// The message text alone would classify as invalid code.
	err := identity.NewError(identity.CodeWeakPassword, "token rejected")
	if got := SanitizeError(Reset, err); got != MsgWeakPassword {
		t.Fatalf("expected structured code to win, got %q", got)
	}

	wrapped := fmt.Errorf("sign in: %w", identity.NewError(identity.CodeInvalidCredentials, ""))
	if got := SanitizeError(SignIn, wrapped); got != MsgInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %q", got)
	}

	if got := SanitizeError(SignUp, identity.NewError(identity.CodeAccountExists, "exists")); got != MsgSignUpFailed {
		t.Fatalf("account existence must map to the generic sign-up message, got %q", got)
	}
}

func TestSanitizeErrorFallsBackToSubstrings(t *testing.T) {
	if got := SanitizeError(SignIn, errors.New("Wrong password for account")); got != MsgInvalidCredentials {
		t.Fatalf("unexpected message %q", got)
	}
	if got := SanitizeError(Reset, identity.NewError(identity.CodeUnavailable, "otp store down")); got != MsgInvalidCode {
		t.Fatalf("unmapped code should classify by text, got %q", got)
	}
	if got := SanitizeError(SignIn, nil); got != MsgSignInFailed {
		t.Fatalf("nil error should yield fallback, got %q", got)
	}
}

func TestSignUpNeverDistinguishesExistingAccounts(t *testing.T) {
	exists := SanitizeError(SignUp, identity.NewError(identity.CodeAccountExists, "already exists"))
	generic := SanitizeError(SignUp, identity.NewError(identity.CodeUnavailable, "db down"))
	if exists != generic {
		t.Fatalf("existing-account message %q differs from generic %q", exists, generic)
	}
}

func TestSpanishRendering(t *testing.T) {
	s := New(language.MustParse("es-MX"))
	if s.Language() != language.Spanish {
		t.Fatalf("expected es, got %s", s.Language())
	}
	got := s.Sanitize(SignIn, "user not found")
	if got != spanish[MsgInvalidCredentials] {
		t.Fatalf("unexpected spanish message %q", got)
	}
}

func TestUnknownLanguageFallsBackToEnglish(t *testing.T) {
	s := New(language.MustParse("ja"))
	if got := s.Sanitize(Reset, "expired"); got != MsgInvalidCode {
		t.Fatalf("expected english message, got %q", got)
	}
	if got := ParseLanguage("not a tag!!").Sanitize(SignIn, ""); got != MsgSignInFailed {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := ParseLanguage("es-ES,es;q=0.9,en;q=0.8").Language(); got != language.Spanish {
		t.Fatalf("expected spanish from accept-language, got %s", got)
	}
}

func TestClassifyReturnsUntranslatedMessage(t *testing.T) {
	es := New(language.Spanish)
	err := identity.NewError(identity.CodeRateLimited, "slow down")

	if got := Classify(SignIn, err); got != MsgTooManyAttempts {
		t.Fatalf("Classify = %q", got)
	}
	if es.SanitizeError(SignIn, err) != es.Render(Classify(SignIn, err)) {
		t.Fatal("SanitizeError and Classify disagree")
	}
	if got := Classify(SignIn, errors.New("Wrong password")); got != MsgInvalidCredentials {
		t.Fatalf("substring fallback = %q", got)
	}
	if got := Classify(SignIn, nil); got == "" {
		t.Fatal("nil error yielded empty message")
	}
}
