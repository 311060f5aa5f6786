package authflow

import (
	"errors"
	"testing"
)

func TestValidateSignIn(t *testing.T) {
	cases := []struct {
		email, password string
		want            ValidationKind
	}{
		{"", "secret1", MissingEmail},
		{"   ", "secret1", MissingEmail},
		{"ada@example.com", "", MissingPassword},
		{"", "", MissingEmail},
	}
	for _, tc := range cases {
		err := ValidateSignIn(tc.email, tc.password)
		if !errors.Is(err, &ValidationError{Kind: tc.want}) {
			t.Fatalf("ValidateSignIn(%q, %q) = %v, want %s", tc.email, tc.password, err, tc.want)
		}
	}
	if err := ValidateSignIn(" ada@example.com ", "x"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

var samplePasswords = []string{"a", "ab", "abcde", "secret1", "Secret1", "correct horse", "パスワード123", " spaced ", "123456"}

func TestValidateSignUpRejectsEveryMismatch(t *testing.T) {
	for _, pw := range samplePasswords {
		for _, confirm := range samplePasswords {
			if pw == confirm {
				continue
			}
			err := ValidateSignUp("Ada", "ada@example.com", pw, confirm)
			if !errors.Is(err, &ValidationError{Kind: PasswordMismatch}) {
				t.Fatalf("ValidateSignUp(%q, %q) = %v, want mismatch", pw, confirm, err)
			}
		}
	}
}

func TestValidateSignUpRejectsShortPasswords(t *testing.T) {
	for _, pw := range []string{"", "a", "ab", "abc", "abcd", "abcde", "12345", "     "} {
		err := ValidateSignUp("Ada", "ada@example.com", pw, pw)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Kind != PasswordTooShort || ve.Min != MinPasswordLength {
			t.Fatalf("ValidateSignUp(%q) = %v, want too short", pw, err)
		}
	}
}

func TestValidateSignUpRejectsRegardlessOfOtherFields(t *testing.T) {
	others := []struct{ name, email string }{
		{"", ""},
		{"Ada", ""},
		{"", "ada@example.com"},
		{"Ada", "ada@example.com"},
	}
	for _, o := range others {
		if err := ValidateSignUp(o.name, o.email, "secret1", "secret2"); err == nil {
			t.Fatalf("mismatch accepted with name=%q email=%q", o.name, o.email)
		}
		if err := ValidateSignUp(o.name, o.email, "abc", "abc"); err == nil {
			t.Fatalf("short password accepted with name=%q email=%q", o.name, o.email)
		}
	}
}

func TestValidateSignUpOrder(t *testing.T) {
	cases := []struct {
		name, email, pw, confirm string
		want                     ValidationKind
	}{
		{"", "", "a", "b", MissingName},
		{"  ", "ada@example.com", "secret1", "secret1", MissingName},
		{"Ada", " ", "secret1", "secret1", MissingEmail},
		{"Ada", "ada@example.com", "abc", "abd", PasswordMismatch},
		{"Ada", "ada@example.com", "", "", PasswordTooShort},
	}
	for _, tc := range cases {
		err := ValidateSignUp(tc.name, tc.email, tc.pw, tc.confirm)
		if !errors.Is(err, &ValidationError{Kind: tc.want}) {
			t.Fatalf("ValidateSignUp(%q, %q, %q, %q) = %v, want %s", tc.name, tc.email, tc.pw, tc.confirm, err, tc.want)
		}
	}
	if err := ValidateSignUp("Ada", "ada@example.com", "secret1", "secret1"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateResetCode(t *testing.T) {
	for _, ok := range []string{"000000", "123456", "999999"} {
		if err := ValidateResetCode(ok); err != nil {
			t.Fatalf("ValidateResetCode(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "12345", "1234567", "12345a", " 12345", "12 456"} {
		if err := ValidateResetCode(bad); !errors.Is(err, &ValidationError{Kind: InvalidCodeLength}) {
			t.Fatalf("ValidateResetCode(%q) = %v", bad, err)
		}
	}
}

func TestValidationErrorText(t *testing.T) {
	err := &ValidationError{Kind: PasswordTooShort, Min: 6}
	if got := err.Error(); got != "authflow: password_too_short (min 6)" {
		t.Fatalf("Error() = %q", got)
	}
	if errors.Is(err, &ValidationError{Kind: MissingName}) {
		t.Fatal("different kinds matched")
	}
}
